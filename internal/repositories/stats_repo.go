package repositories

import (
	"context"
	"fmt"

	"github.com/prudhvinik1/garagesync/internal/models"
)

const statsPath = "/dashboard/stats"

type RESTStatsRepository struct {
	client *RESTClient
}

func NewRESTStatsRepository(client *RESTClient) *RESTStatsRepository {
	return &RESTStatsRepository{client: client}
}

func (r *RESTStatsRepository) Get(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := r.client.getJSON(ctx, statsPath, nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
