package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/prudhvinik1/garagesync/internal/models"
)

// EntityRepository is the backend CRUD surface for one resource.
type EntityRepository[T any] interface {
	List(ctx context.Context, q string) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, form any) (T, error)
	Update(ctx context.Context, id string, form any) (T, error)
	Delete(ctx context.Context, id string) error
}

type StatsRepository interface {
	Get(ctx context.Context) (*models.Stats, error)
}

type AuthRepository interface {
	Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthResponse, error)
	Verify(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*models.User, error)
}

type SessionRepository interface {
	Save(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
