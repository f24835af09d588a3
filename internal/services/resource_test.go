package services

import (
	"context"
	"testing"

	"github.com/prudhvinik1/garagesync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVehicleRepo struct {
	created []models.VehicleForm
	deleted []string
}

func (f *fakeVehicleRepo) List(ctx context.Context, q string) ([]models.Vehicle, error) {
	return nil, nil
}

func (f *fakeVehicleRepo) GetByID(ctx context.Context, id string) (models.Vehicle, error) {
	return models.Vehicle{ID: id}, nil
}

func (f *fakeVehicleRepo) Create(ctx context.Context, form any) (models.Vehicle, error) {
	v := form.(models.VehicleForm)
	f.created = append(f.created, v)
	return models.Vehicle{ID: "new", Brand: v.Brand}, nil
}

func (f *fakeVehicleRepo) Update(ctx context.Context, id string, form any) (models.Vehicle, error) {
	v := form.(models.VehicleForm)
	return models.Vehicle{ID: id, Brand: v.Brand}, nil
}

func (f *fakeVehicleRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestResource_WritesGoToBackendOnly(t *testing.T) {
	repo := &fakeVehicleRepo{}
	feed := NewFeed(FeedConfig[models.Vehicle]{Name: "vehicles"})
	res := NewResource[models.Vehicle, models.VehicleForm](feed, "vehicle", repo)
	ctx := context.Background()

	created, err := res.Create(ctx, []byte(`{"brand":"Kia","model":"Rio","year":2020,"plate_id":"P","owner":"O","active":true}`))

	require.NoError(t, err)
	assert.Equal(t, models.Vehicle{ID: "new", Brand: "Kia"}, created)
	require.Len(t, repo.created, 1)
	assert.Empty(t, res.List(""), "the live collection waits for the backend event")

	require.NoError(t, res.Delete(ctx, "v1"))
	assert.Equal(t, []string{"v1"}, repo.deleted)
	assert.Equal(t, "vehicle", res.Singular())
	assert.Equal(t, "vehicles", res.Name())
}

func TestResource_RejectsInvalidForms(t *testing.T) {
	repo := &fakeVehicleRepo{}
	res := NewResource[models.Vehicle, models.VehicleForm](NewFeed(FeedConfig[models.Vehicle]{Name: "vehicles"}), "vehicle", repo)

	_, err := res.Create(context.Background(), []byte(`{"brand":""}`))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = res.Update(context.Background(), "v1", []byte(`not json`))
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Empty(t, repo.created)
}

func TestResource_Get(t *testing.T) {
	feed := NewFeed(FeedConfig[models.Vehicle]{Name: "vehicles"})
	feed.OnFrame([]byte(`{"type":"update","data":{"id":"v9","brand":"Audi"}}`))
	res := NewResource[models.Vehicle, models.VehicleForm](feed, "vehicle", &fakeVehicleRepo{})

	got, ok := res.Get("v9")
	require.True(t, ok)
	assert.Equal(t, "Audi", got.(models.Vehicle).Brand)

	_, ok = res.Get("missing")
	assert.False(t, ok)
}
