package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prudhvinik1/garagesync/internal/channel"
	"github.com/prudhvinik1/garagesync/internal/config"
	"github.com/prudhvinik1/garagesync/internal/database"
	"github.com/prudhvinik1/garagesync/internal/handlers"
	"github.com/prudhvinik1/garagesync/internal/metrics"
	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/prudhvinik1/garagesync/internal/repositories"
	"github.com/prudhvinik1/garagesync/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	sessions, closeSessions, err := database.OpenSessionStore(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeSessions()

	// Backend clients
	rest := repositories.NewRESTClient(cfg.BackendURL, repositories.RESTOptions{
		Timeout:  cfg.RequestTimeout,
		RetryMax: 2,
		Logger:   logger.With("component", "rest"),
	})
	auth := services.NewAuthService(
		repositories.NewRESTAuthRepository(rest),
		sessions,
		cfg.BackendURL,
		models.LoginCredentials{Username: cfg.BackendUsername, Password: cfg.BackendPassword},
		logger,
	)
	authed := rest.WithToken(auth.Token)

	collector := metrics.NewCollector()
	registry, err := metrics.NewRegistry(collector)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	newChannel := func(resource string) *channel.WebSocket {
		return channel.NewWebSocket(channel.Options{
			URL: cfg.ChannelURL(resource),
			Header: func(ctx context.Context) (http.Header, error) {
				token, err := auth.Token(ctx)
				if err != nil || token == "" {
					return nil, err
				}
				return http.Header{"Authorization": []string{"Bearer " + token}}, nil
			},
			MaxBackoff: cfg.ReconnectMaxInterval,
			Logger:     logger.With("component", "channel", "resource", resource),
		})
	}

	clientRepo := repositories.NewClientRepository(authed)
	vehicleRepo := repositories.NewVehicleRepository(authed)
	serviceRepo := repositories.NewServiceRepository(authed)

	gateway := services.NewGateway(
		services.NewResource[models.Client, models.ClientForm](
			services.NewFeed(services.FeedConfig[models.Client]{
				Name: "clients", Channel: newChannel("client"), Fallback: clientRepo, Metrics: collector, Logger: logger,
			}), "client", clientRepo),
		services.NewResource[models.Vehicle, models.VehicleForm](
			services.NewFeed(services.FeedConfig[models.Vehicle]{
				Name: "vehicles", Channel: newChannel("vehicle"), Fallback: vehicleRepo, Metrics: collector, Logger: logger,
			}), "vehicle", vehicleRepo),
		services.NewResource[models.Service, models.ServiceForm](
			services.NewFeed(services.FeedConfig[models.Service]{
				Name: "services", Channel: newChannel("service"), Fallback: serviceRepo, Metrics: collector, Logger: logger,
			}), "service", serviceRepo),
	)
	if err := gateway.Start(ctx); err != nil {
		gateway.Stop()
		return fmt.Errorf("failed to start feeds: %w", err)
	}
	defer gateway.Stop()

	h := handlers.NewHandler(gateway, repositories.NewRESTStatsRepository(authed), auth, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handlers.NewRouter(h, registry),
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "port", cfg.ServerPort, "backend", cfg.BackendURL, "channel", cfg.BackendWSURL)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
