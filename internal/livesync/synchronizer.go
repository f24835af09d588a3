package livesync

import (
	"log/slog"
	"sync"
)

// Synchronizer owns an ordered, id-unique collection driven by Events.
//
// One goroutine is expected to call OnEvent and Reset; any number may read.
type Synchronizer[T Entity] struct {
	mu       sync.RWMutex
	items    []T
	position map[string]int
	state    State
	logger   *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for ignored events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New returns an empty, uninitialized Synchronizer.
func New[T Entity](opts ...Option) *Synchronizer[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Synchronizer[T]{
		position: make(map[string]int),
		logger:   o.logger,
	}
}

// OnEvent applies one event. It never fails: anything it cannot apply is
// logged and leaves the collection untouched.
func (s *Synchronizer[T]) OnEvent(event Event[T]) {
	switch e := event.(type) {
	case Snapshot[T]:
		s.replace(e.Entities)
	case *Snapshot[T]:
		if e == nil {
			s.ignore(event)
			return
		}
		s.replace(e.Entities)
	case Upsert[T]:
		s.upsert(e.Entity)
	case *Upsert[T]:
		if e == nil {
			s.ignore(event)
			return
		}
		s.upsert(e.Entity)
	default:
		s.ignore(event)
	}
}

func (s *Synchronizer[T]) ignore(event Event[T]) {
	s.logger.Warn("ignoring unrecognized event", "event", event)
}

func (s *Synchronizer[T]) replace(entities []T) {
	items := make([]T, 0, len(entities))
	position := make(map[string]int, len(entities))
	for _, entity := range entities {
		id := entity.EntityID()
		if i, ok := position[id]; ok {
			items[i] = entity
			continue
		}
		position[id] = len(items)
		items = append(items, entity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.position = position
	s.state = Live
}

func (s *Synchronizer[T]) upsert(entity T) {
	id := entity.EntityID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.position[id]; ok {
		s.items[i] = entity
		return
	}
	s.position[id] = len(s.items)
	s.items = append(s.items, entity)
}

// Collection returns a copy of the current collection in order.
func (s *Synchronizer[T]) Collection() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the entity with the given id, if present.
func (s *Synchronizer[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.position[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Len returns the number of entities held.
func (s *Synchronizer[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// State reports whether a snapshot has been applied since the last reset.
func (s *Synchronizer[T]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reset empties the collection and returns to Uninitialized. Call it when the
// channel drops so stale entities are not shown while a new snapshot is due.
func (s *Synchronizer[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.position = make(map[string]int)
	s.state = Uninitialized
}
