package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/prudhvinik1/garagesync/internal/models"
)

type RESTAuthRepository struct {
	client *RESTClient
}

func NewRESTAuthRepository(client *RESTClient) *RESTAuthRepository {
	return &RESTAuthRepository{client: client}
}

// Login posts the credentials form-encoded, the way the backend's login route expects.
func (r *RESTAuthRepository) Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var resp models.AuthResponse
	err := r.client.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("login response has no token")
	}
	return &resp, nil
}

func (r *RESTAuthRepository) Verify(ctx context.Context, token string) error {
	if err := r.client.do(ctx, request{method: http.MethodGet, path: "/auth/verify", bearer: token}, nil); err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}
	return nil
}

func (r *RESTAuthRepository) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.client.do(ctx, request{method: http.MethodGet, path: "/auth/me", bearer: token}, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}
