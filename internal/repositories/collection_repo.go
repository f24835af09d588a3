package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/prudhvinik1/garagesync/internal/models"
)

// RESTCollectionRepository is the CRUD client for one backend resource. The
// backend wraps single entities as {"client": ...} and lists as {"clients": [...]}.
type RESTCollectionRepository[T any] struct {
	client   *RESTClient
	path     string
	singular string
	plural   string
}

func NewRESTCollectionRepository[T any](client *RESTClient, path, singular, plural string) *RESTCollectionRepository[T] {
	return &RESTCollectionRepository[T]{client: client, path: path, singular: singular, plural: plural}
}

func NewClientRepository(client *RESTClient) *RESTCollectionRepository[models.Client] {
	return NewRESTCollectionRepository[models.Client](client, "/client", "client", "clients")
}

func NewVehicleRepository(client *RESTClient) *RESTCollectionRepository[models.Vehicle] {
	return NewRESTCollectionRepository[models.Vehicle](client, "/vehicle", "vehicle", "vehicles")
}

func NewServiceRepository(client *RESTClient) *RESTCollectionRepository[models.Service] {
	return NewRESTCollectionRepository[models.Service](client, "/service", "service", "services")
}

// List fetches the full collection; q is passed through for server-side filtering.
func (r *RESTCollectionRepository[T]) List(ctx context.Context, q string) ([]T, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}

	var envelope map[string]json.RawMessage
	if err := r.client.getJSON(ctx, r.path, query, &envelope); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.plural, err)
	}
	items, err := unwrap[[]T](envelope, r.plural)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.plural, err)
	}
	return items, nil
}

func (r *RESTCollectionRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var envelope map[string]json.RawMessage
	if err := r.client.getJSON(ctx, r.itemPath(id), nil, &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s %s: %w", r.singular, id, err)
	}
	return unwrap[T](envelope, r.singular)
}

func (r *RESTCollectionRepository[T]) Create(ctx context.Context, form any) (T, error) {
	var envelope map[string]json.RawMessage
	if err := r.client.sendJSON(ctx, http.MethodPost, r.path, form, &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to create %s: %w", r.singular, err)
	}
	return unwrap[T](envelope, r.singular)
}

func (r *RESTCollectionRepository[T]) Update(ctx context.Context, id string, form any) (T, error) {
	var envelope map[string]json.RawMessage
	if err := r.client.sendJSON(ctx, http.MethodPut, r.itemPath(id), form, &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to update %s %s: %w", r.singular, id, err)
	}
	return unwrap[T](envelope, r.singular)
}

func (r *RESTCollectionRepository[T]) Delete(ctx context.Context, id string) error {
	if err := r.client.do(ctx, request{method: http.MethodDelete, path: r.itemPath(id)}, nil); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.singular, id, err)
	}
	return nil
}

func (r *RESTCollectionRepository[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}
