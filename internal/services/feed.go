package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prudhvinik1/garagesync/internal/channel"
	"github.com/prudhvinik1/garagesync/internal/livesync"
	"github.com/prudhvinik1/garagesync/internal/metrics"
)

// ErrLiveChannel is returned by Refresh while the event channel is connected.
// The channel is then the only writer of the collection.
var ErrLiveChannel = errors.New("collection is fed by a live channel")

// Searchable is an entity that can be filtered by a free-text query.
type Searchable interface {
	livesync.Entity
	Matches(q string) bool
}

// Lister fetches a full collection over REST.
type Lister[T any] interface {
	List(ctx context.Context, q string) ([]T, error)
}

// Channel is the event channel a Feed owns.
type Channel interface {
	Open(ctx context.Context, h channel.Handler) error
	Close() error
}

// Recorder receives feed metrics. *metrics.Collector implements it.
type Recorder interface {
	EventApplied(collection, kind string)
	FrameDropped(collection, reason string)
	Reset(collection string)
	FallbackFetch(collection string, err error)
	SetSize(collection string, size int)
	SetConnected(collection string, connected bool)
}

type FeedStatus struct {
	Name      string         `json:"name"`
	State     livesync.State `json:"state"`
	Size      int            `json:"size"`
	Connected bool           `json:"connected"`
	// Always true: the event vocabulary has no delete, so removals only
	// show up when the backend sends a new snapshot.
	DeletesViaSnapshotOnly bool `json:"deletes_via_snapshot_only"`
}

type FeedConfig[T Searchable] struct {
	Name     string
	Channel  Channel
	Fallback Lister[T]
	Metrics  Recorder
	Logger   *slog.Logger
}

// Feed keeps one live collection in step with its event channel.
type Feed[T Searchable] struct {
	name     string
	sync     *livesync.Synchronizer[T]
	channel  Channel
	fallback Lister[T]
	metrics  Recorder
	logger   *slog.Logger

	connected atomic.Bool

	mu  sync.Mutex
	ctx context.Context

	// applyMu orders REST snapshots against connect and disconnect.
	applyMu sync.Mutex
}

func NewFeed[T Searchable](cfg FeedConfig[T]) *Feed[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("collection", cfg.Name)
	rec := cfg.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Feed[T]{
		name:     cfg.Name,
		sync:     livesync.New[T](livesync.WithLogger(logger)),
		channel:  cfg.Channel,
		fallback: cfg.Fallback,
		metrics:  rec,
		logger:   logger,
	}
}

// Start opens the event channel. Without a channel it falls back to a single
// REST snapshot.
func (f *Feed[T]) Start(ctx context.Context) error {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()

	if f.channel == nil {
		if f.fallback == nil {
			return fmt.Errorf("feed %s has neither channel nor fallback", f.name)
		}
		return f.Refresh(ctx)
	}
	if err := f.channel.Open(ctx, f); err != nil {
		return fmt.Errorf("failed to open %s channel: %w", f.name, err)
	}
	return nil
}

// Stop closes the channel and drops the collection.
func (f *Feed[T]) Stop() error {
	var err error
	if f.channel != nil {
		err = f.channel.Close()
	}
	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	f.sync.Reset()
	f.connected.Store(false)
	f.metrics.SetConnected(f.name, false)
	f.metrics.SetSize(f.name, 0)
	return err
}

// Refresh fetches the collection over REST and applies it as one snapshot.
// It fails with ErrLiveChannel while the channel is connected, including when
// the channel connects during the fetch.
func (f *Feed[T]) Refresh(ctx context.Context) error {
	if f.fallback == nil {
		return fmt.Errorf("feed %s has no fallback", f.name)
	}
	if f.connected.Load() {
		return fmt.Errorf("refresh %s: %w", f.name, ErrLiveChannel)
	}
	items, err := f.fallback.List(ctx, "")
	f.metrics.FallbackFetch(f.name, err)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", f.name, err)
	}

	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	if f.connected.Load() {
		f.logger.Info("discarding REST snapshot, channel connected during fetch", "size", len(items))
		return fmt.Errorf("refresh %s: %w", f.name, ErrLiveChannel)
	}
	f.apply(livesync.Snapshot[T]{Entities: items})
	f.logger.Info("applied REST snapshot", "size", len(items))
	return nil
}

// OnConnect implements channel.Handler.
func (f *Feed[T]) OnConnect() {
	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	f.connected.Store(true)
	f.metrics.SetConnected(f.name, true)
}

// OnFrame implements channel.Handler. Frames that do not decode are dropped.
func (f *Feed[T]) OnFrame(frame []byte) {
	event, err := livesync.Decode[T](frame)
	if err != nil {
		reason := metrics.ReasonMalformed
		if errors.Is(err, livesync.ErrUnknownEventType) {
			reason = metrics.ReasonUnknownType
		}
		f.metrics.FrameDropped(f.name, reason)
		f.logger.Warn("dropping frame", "reason", reason, "error", err)
		return
	}
	f.apply(event)
}

// OnDisconnect implements channel.Handler. The collection is cleared until
// the next snapshot arrives.
func (f *Feed[T]) OnDisconnect(err error) {
	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	f.connected.Store(false)
	f.metrics.SetConnected(f.name, false)
	f.sync.Reset()
	f.metrics.Reset(f.name)
	f.metrics.SetSize(f.name, 0)
}

// OnDialFailure implements channel.Handler. While nothing has been loaded,
// the REST fallback stands in for the channel.
func (f *Feed[T]) OnDialFailure(err error) {
	if f.fallback == nil || f.sync.State() != livesync.Uninitialized {
		return
	}
	f.mu.Lock()
	ctx := f.ctx
	f.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := f.Refresh(ctx); err != nil {
		f.logger.Warn("fallback fetch failed", "error", err)
	}
}

func (f *Feed[T]) apply(event livesync.Event[T]) {
	f.sync.OnEvent(event)
	f.metrics.EventApplied(f.name, event.Kind())
	f.metrics.SetSize(f.name, f.sync.Len())
}

func (f *Feed[T]) Name() string { return f.name }

// Items returns the collection filtered by q, in collection order.
func (f *Feed[T]) Items(q string) []T {
	all := f.sync.Collection()
	if q == "" {
		return all
	}
	out := make([]T, 0, len(all))
	for _, item := range all {
		if item.Matches(q) {
			out = append(out, item)
		}
	}
	return out
}

func (f *Feed[T]) Item(id string) (T, bool) {
	return f.sync.Get(id)
}

func (f *Feed[T]) Status() FeedStatus {
	return FeedStatus{
		Name:                   f.name,
		State:                  f.sync.State(),
		Size:                   f.sync.Len(),
		Connected:              f.connected.Load(),
		DeletesViaSnapshotOnly: true,
	}
}

type nopRecorder struct{}

func (nopRecorder) EventApplied(string, string) {}
func (nopRecorder) FrameDropped(string, string) {}
func (nopRecorder) Reset(string)                {}
func (nopRecorder) FallbackFetch(string, error) {}
func (nopRecorder) SetSize(string, int)         {}
func (nopRecorder) SetConnected(string, bool)   {}
