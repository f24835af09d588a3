package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/prudhvinik1/garagesync/internal/repositories"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoCredentials = errors.New("no backend credentials configured")
)

// tokenSkew is how long before expiry a token is treated as expired.
const tokenSkew = 30 * time.Second

// AuthService holds the gateway's own backend session. It logs in with the
// configured credentials and hands out the bearer token to the REST client
// and the event channels.
type AuthService struct {
	authRepo    repositories.AuthRepository
	sessionRepo repositories.SessionRepository
	creds       models.LoginCredentials
	sessionID   uuid.UUID
	now         func() time.Time
	logger      *slog.Logger

	mu sync.Mutex
}

func NewAuthService(
	authRepo repositories.AuthRepository,
	sessionRepo repositories.SessionRepository,
	backendURL string,
	creds models.LoginCredentials,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		creds:       creds,
		// Stable across restarts so a still-valid token in Redis is reused.
		sessionID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(backendURL+"#"+creds.Username)),
		now:       time.Now,
		logger:    logger,
	}
}

// Enabled reports whether credentials were configured.
func (s *AuthService) Enabled() bool {
	return s.creds.Username != ""
}

func (s *AuthService) Login(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx)
}

func (s *AuthService) login(ctx context.Context) (*models.Session, error) {
	if !s.Enabled() {
		return nil, ErrNoCredentials
	}

	resp, err := s.authRepo.Login(ctx, s.creds)
	if err != nil {
		return nil, err
	}

	expiresAt, err := tokenExpiry(resp.Token)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        s.sessionID,
		Token:     resp.Token,
		User:      resp.User,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("logged in to backend", "user", resp.User.Email, "expires_at", expiresAt)
	return session, nil
}

// Token returns a bearer token for backend calls, logging in again when the
// stored one is missing or about to expire. Without credentials it returns
// an empty token.
func (s *AuthService) Token(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessionRepo.GetByID(ctx, s.sessionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if err == nil && session.Valid(s.now(), tokenSkew) {
		return session.Token, nil
	}

	session, err = s.login(ctx)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// CurrentUser asks the backend who the gateway is logged in as.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoCredentials
	}
	return s.authRepo.Me(ctx, token)
}

func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sessionRepo.Delete(ctx, s.sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without checking the signature; the
// gateway cannot verify backend tokens and only needs to know when to renew.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	return exp.Time, nil
}
