package livesync

// Entity is anything the synchronizer can track. It only ever looks at the id.
type Entity interface {
	EntityID() string
}

// Event is one decoded message from the event channel. The variants are
// Snapshot and Upsert; the unexported marker keeps the set closed.
type Event[T Entity] interface {
	isEvent()
	Kind() string
}

// Snapshot replaces the whole collection, keeping the order given.
type Snapshot[T Entity] struct {
	Entities []T
}

func (Snapshot[T]) isEvent() {}

// Kind implements Event.
func (Snapshot[T]) Kind() string { return "snapshot" }

// Upsert inserts an unseen entity at the end or replaces a known one in place.
type Upsert[T Entity] struct {
	Entity T
}

func (Upsert[T]) isEvent() {}

// Kind implements Event.
func (Upsert[T]) Kind() string { return "upsert" }
