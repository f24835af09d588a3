package livesync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire tags carried in the "type" field of a frame.
const (
	TypeInitialData = "initial_data"
	TypeUpdate      = "update"
)

var (
	// ErrMalformedFrame is returned for frames that are not a {type, data}
	// object or whose data does not fit the declared type.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownEventType is returned for well-formed frames with a type
	// this package does not know.
	ErrUnknownEventType = errors.New("unknown event type")
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode turns one text frame into an Event. It is the only place where
// unrecognized input is rejected; everything past it is a known variant.
// T should be a value type so a null element decodes to an id-less entity
// instead of a nil pointer.
func Decode[T Entity](raw []byte) (Event[T], error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	switch f.Type {
	case TypeInitialData, TypeUpdate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
	}

	data := bytes.TrimSpace(f.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%w: missing data for %q", ErrMalformedFrame, f.Type)
	}

	if f.Type == TypeInitialData {
		var entities []T
		if err := json.Unmarshal(data, &entities); err != nil {
			return nil, fmt.Errorf("%w: initial_data: %v", ErrMalformedFrame, err)
		}
		for i, entity := range entities {
			if entity.EntityID() == "" {
				return nil, fmt.Errorf("%w: initial_data: entity %d has no id", ErrMalformedFrame, i)
			}
		}
		return Snapshot[T]{Entities: entities}, nil
	}

	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("%w: update: %v", ErrMalformedFrame, err)
	}
	if entity.EntityID() == "" {
		return nil, fmt.Errorf("%w: update: entity has no id", ErrMalformedFrame)
	}
	return Upsert[T]{Entity: entity}, nil
}
