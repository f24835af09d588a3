package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prudhvinik1/garagesync/internal/repositories"
	"github.com/redis/go-redis/v9"
)

// OpenSessionStore returns the Redis-backed session store when redisURL is
// set, and an in-process one otherwise. The returned close func is never nil.
func OpenSessionStore(ctx context.Context, redisURL string, logger *slog.Logger) (repositories.SessionRepository, func() error, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, keeping sessions in memory")
		return repositories.NewMemorySessionRepository(), func() error { return nil }, nil
	}

	client, err := newRedisClient(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis session store connected", "addr", client.Options().Addr)
	return repositories.NewRedisSessionRepository(client), client.Close, nil
}

func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Ping the client to ensure connection is established
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}
	return client, nil
}
