package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	ServerPort           string
	BackendURL           string
	BackendWSURL         string
	BackendUsername      string
	BackendPassword      string
	RedisURL             string
	RequestTimeout       time.Duration
	ReconnectMaxInterval time.Duration
	LogLevel             slog.Level
}

func LoadConfig() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return nil, errors.New("invalid REQUEST_TIMEOUT format")
	}
	reconnect, err := time.ParseDuration(getEnv("RECONNECT_MAX_INTERVAL", "30s"))
	if err != nil {
		return nil, errors.New("invalid RECONNECT_MAX_INTERVAL format")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, errors.New("invalid LOG_LEVEL")
	}

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		BackendURL:           strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api/v1"), "/"),
		BackendWSURL:         strings.TrimRight(os.Getenv("BACKEND_WS_URL"), "/"),
		BackendUsername:      os.Getenv("BACKEND_USERNAME"),
		BackendPassword:      os.Getenv("BACKEND_PASSWORD"),
		RedisURL:             os.Getenv("REDIS_URL"),
		RequestTimeout:       timeout,
		ReconnectMaxInterval: reconnect,
		LogLevel:             level,
	}

	// Validate
	backend, err := url.Parse(cfg.BackendURL)
	if err != nil || (backend.Scheme != "http" && backend.Scheme != "https") || backend.Host == "" {
		return nil, errors.New("BACKEND_URL must be an http(s) URL")
	}
	if cfg.BackendWSURL == "" {
		cfg.BackendWSURL = deriveWSURL(backend)
	}
	ws, err := url.Parse(cfg.BackendWSURL)
	if err != nil || (ws.Scheme != "ws" && ws.Scheme != "wss") || ws.Host == "" {
		return nil, errors.New("BACKEND_WS_URL must be a ws(s) URL")
	}
	if (cfg.BackendUsername == "") != (cfg.BackendPassword == "") {
		return nil, errors.New("BACKEND_USERNAME and BACKEND_PASSWORD must be set together")
	}
	if cfg.RequestTimeout <= 0 || cfg.ReconnectMaxInterval <= 0 {
		return nil, errors.New("REQUEST_TIMEOUT and RECONNECT_MAX_INTERVAL must be positive")
	}

	return cfg, nil
}

// ChannelURL is the event channel for one resource, e.g. ws://host/api/v1/ws/client.
func (c *Config) ChannelURL(resource string) string {
	return fmt.Sprintf("%s/%s", c.BackendWSURL, resource)
}

// deriveWSURL maps http://host/api/v1 to ws://host/api/v1/ws.
func deriveWSURL(backend *url.URL) string {
	ws := *backend
	ws.Scheme = "ws"
	if backend.Scheme == "https" {
		ws.Scheme = "wss"
	}
	ws.Path = strings.TrimRight(ws.Path, "/") + "/ws"
	return ws.String()
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
