package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/prudhvinik1/garagesync/internal/repositories"
)

// Form is a create/update payload that can check itself.
type Form interface {
	Validate() error
}

// Resource pairs a live Feed with the backend repository used to change it.
// Writes go to the backend only; the feed picks the result up from the
// channel like any other change.
type Resource[T Searchable, F Form] struct {
	*Feed[T]
	singular string
	repo     repositories.EntityRepository[T]
}

func NewResource[T Searchable, F Form](feed *Feed[T], singular string, repo repositories.EntityRepository[T]) *Resource[T, F] {
	return &Resource[T, F]{Feed: feed, singular: singular, repo: repo}
}

func (r *Resource[T, F]) Singular() string { return r.singular }

// List and Get return any so the HTTP layer can serve every resource alike.
func (r *Resource[T, F]) List(q string) any {
	return r.Items(q)
}

func (r *Resource[T, F]) Get(id string) (any, bool) {
	return r.Item(id)
}

func (r *Resource[T, F]) Create(ctx context.Context, body []byte) (any, error) {
	form, err := decodeForm[F](body)
	if err != nil {
		return nil, err
	}
	return r.repo.Create(ctx, form)
}

func (r *Resource[T, F]) Update(ctx context.Context, id string, body []byte) (any, error) {
	form, err := decodeForm[F](body)
	if err != nil {
		return nil, err
	}
	return r.repo.Update(ctx, id, form)
}

func (r *Resource[T, F]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

func decodeForm[F Form](body []byte) (F, error) {
	var form F
	if err := json.Unmarshal(body, &form); err != nil {
		return form, &models.ValidationError{Fields: []models.FieldError{{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	if err := form.Validate(); err != nil {
		return form, err
	}
	return form, nil
}
