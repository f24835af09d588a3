package database

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/prudhvinik1/garagesync/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSessionStore_Memory(t *testing.T) {
	store, closeFn, err := OpenSessionStore(context.Background(), "", slog.Default())

	require.NoError(t, err)
	assert.IsType(t, &repositories.MemorySessionRepository{}, store)
	assert.NoError(t, closeFn())
}

func TestOpenSessionStore_BadURL(t *testing.T) {
	_, _, err := OpenSessionStore(context.Background(), "not-a-redis-url", slog.Default())

	assert.Error(t, err)
}

func TestOpenSessionStore_Redis(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	store, closeFn, err := OpenSessionStore(context.Background(), redisURL, slog.Default())

	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repositories.RedisSessionRepository{}, store)
}
