package repositories

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *RESTClient {
	return NewRESTClient(srv.URL, RESTOptions{Timeout: 2 * time.Second})
}

func TestCollectionRepository_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client", r.URL.Path)
		assert.Equal(t, "smith", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"clients":[{"id":"1","name":"John Smith","phone":"1","enabled":true}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv).WithToken(func(ctx context.Context) (string, error) { return "tok", nil })
	repo := NewClientRepository(client)

	clients, err := repo.List(context.Background(), "smith")

	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "John Smith", clients[0].Name)
	assert.True(t, clients[0].Enabled)
}

func TestCollectionRepository_ListWithoutQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"vehicles":[]}`))
	}))
	defer srv.Close()

	vehicles, err := NewVehicleRepository(newTestClient(srv)).List(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestCollectionRepository_MissingEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	_, err := NewServiceRepository(newTestClient(srv)).List(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"services"`)
}

func TestCollectionRepository_CRUD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/vehicle/v1":
			w.Write([]byte(`{"vehicle":{"id":"v1","brand":"Ford","year":1999}}`))
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/vehicle":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var form models.VehicleForm
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&form))
			json.NewEncoder(w).Encode(map[string]any{"vehicle": models.Vehicle{ID: "v2", Brand: form.Brand}})
		case r.Method == http.MethodPut && r.URL.Path == "/vehicle/v1":
			w.Write([]byte(`{"vehicle":{"id":"v1","brand":"Ford","model":"Focus"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/vehicle/v1":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	repo := NewVehicleRepository(newTestClient(srv))
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1999, got.Year)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := repo.Create(ctx, models.VehicleForm{Brand: "Kia"})
	require.NoError(t, err)
	assert.Equal(t, models.Vehicle{ID: "v2", Brand: "Kia"}, created)

	updated, err := repo.Update(ctx, "v1", models.VehicleForm{Brand: "Ford", Model: "Focus"})
	require.NoError(t, err)
	assert.Equal(t, "Focus", updated.Model)

	require.NoError(t, repo.Delete(ctx, "v1"))
}

func TestRESTClient_StatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/client":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"bad"}`))
		}
	}))
	defer srv.Close()
	client := newTestClient(srv)

	_, err := NewClientRepository(client).List(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewServiceRepository(client).Create(context.Background(), models.ServiceForm{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, `{"detail":"bad"}`, apiErr.Body)
}

func TestRESTClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"recent_logs":[],"statistics":{"total_clients":4,"total_vehicles":2,"services_today":1},"timestamp":"2025-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, RESTOptions{RetryMax: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: 5 * time.Millisecond})
	stats, err := NewRESTStatsRepository(client).Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 4, stats.Statistics.TotalClients)
}

func TestAuthRepository_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "password=secret&username=admin", string(body))
			w.Write([]byte(`{"token":"jwt","user":{"id":"1","email":"a@b.c","name":"Admin"}}`))
		case "/auth/verify":
			if r.Header.Get("Authorization") != "Bearer jwt" {
				w.WriteHeader(http.StatusUnauthorized)
			}
		case "/auth/me":
			w.Write([]byte(`{"id":"1","email":"a@b.c","name":"Admin"}`))
		}
	}))
	defer srv.Close()
	repo := NewRESTAuthRepository(newTestClient(srv))
	ctx := context.Background()

	resp, err := repo.Login(ctx, models.LoginCredentials{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, "Admin", resp.User.Name)

	assert.NoError(t, repo.Verify(ctx, "jwt"))
	assert.ErrorIs(t, repo.Verify(ctx, "other"), ErrUnauthorized)

	user, err := repo.Me(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)
}
