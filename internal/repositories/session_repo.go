package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// ErrSessionExpired is returned when saving a session whose token has already expired.
var ErrSessionExpired = errors.New("session already expired")

type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Save stores the session under "session:{id}" until its token expires.
func (r *RedisSessionRepository) Save(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = r.client.Set(ctx, sessionKey(session.ID), jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	jsonData, err := r.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id uuid.UUID) string {
	return sessionPrefix + id.String()
}

// MemorySessionRepository keeps sessions for the life of the process, for
// deployments without Redis.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.Session
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]models.Session),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *models.Session) error {
	if !r.now().Before(session.ExpiresAt) {
		return ErrSessionExpired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !r.now().Before(session.ExpiresAt) {
		delete(r.sessions, id)
		return nil, ErrNotFound
	}
	return &session, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
