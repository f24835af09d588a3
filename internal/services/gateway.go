package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Collection is what the HTTP layer needs from each resource.
type Collection interface {
	Name() string
	Singular() string
	List(q string) any
	Get(id string) (any, bool)
	Status() FeedStatus
	Refresh(ctx context.Context) error
	Create(ctx context.Context, body []byte) (any, error)
	Update(ctx context.Context, id string, body []byte) (any, error)
	Delete(ctx context.Context, id string) error

	Start(ctx context.Context) error
	Stop() error
}

// Gateway owns every live collection the dashboard serves.
type Gateway struct {
	collections []Collection
	byName      map[string]Collection
}

func NewGateway(collections ...Collection) *Gateway {
	byName := make(map[string]Collection, len(collections))
	for _, c := range collections {
		byName[c.Name()] = c
	}
	return &Gateway{collections: collections, byName: byName}
}

func (g *Gateway) Collection(name string) (Collection, bool) {
	c, ok := g.byName[name]
	return c, ok
}

func (g *Gateway) Status() []FeedStatus {
	out := make([]FeedStatus, len(g.collections))
	for i, c := range g.collections {
		out[i] = c.Status()
	}
	return out
}

// Start starts every collection. The feeds keep running on ctx after Start returns.
func (g *Gateway) Start(ctx context.Context) error {
	var eg errgroup.Group
	for _, c := range g.collections {
		c := c
		eg.Go(func() error {
			return c.Start(ctx)
		})
	}
	return eg.Wait()
}

func (g *Gateway) Stop() error {
	var eg errgroup.Group
	errs := make([]error, len(g.collections))
	for i, c := range g.collections {
		i, c := i, c
		eg.Go(func() error {
			errs[i] = c.Stop()
			return nil
		})
	}
	eg.Wait()
	return errors.Join(errs...)
}
