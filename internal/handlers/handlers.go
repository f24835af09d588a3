package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/prudhvinik1/garagesync/internal/repositories"
	"github.com/prudhvinik1/garagesync/internal/services"
)

const maxBodyBytes = 1 << 20

type UserSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

type Handler struct {
	gateway *services.Gateway
	stats   repositories.StatsRepository
	users   UserSource
	logger  *slog.Logger
}

func NewHandler(gateway *services.Gateway, stats repositories.StatsRepository, users UserSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{gateway: gateway, stats: stats, users: users, logger: logger}
}

// NewRouter wires every route. gatherer may be nil to leave out /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/stats", h.getStats)
		r.Get("/me", h.me)

		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Post("/refresh", h.refresh)
			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})

	return router
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"collections": h.gateway.Status()})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (services.Collection, bool) {
	name := chi.URLParam(r, "collection")
	c, ok := h.gateway.Collection(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown collection " + name})
	}
	return c, ok
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{c.Name(): c.List(r.URL.Query().Get("q"))})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	item, found := c.Get(chi.URLParam(r, "id"))
	if !found {
		h.writeError(w, r, repositories.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{c.Singular(): item})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := c.Create(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{c.Singular(): item})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := c.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{c.Singular(): item})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	if err := c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	if err := c.Refresh(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields []models.FieldError `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, repositories.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, services.ErrLiveChannel):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrNoCredentials):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.Is(err, repositories.ErrUnauthorized):
		// The backend rejected our own credentials, not the caller's.
		h.logger.Error("backend rejected credentials", "method", r.Method, "path", r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "backend rejected credentials"})
	default:
		h.logger.Error("backend request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
