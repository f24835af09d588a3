package livesync

import "fmt"

// State is the lifecycle state of a Synchronizer.
type State int

const (
	// Uninitialized means no snapshot has been applied since creation or the
	// last Reset. Upserts still append.
	Uninitialized State = iota
	// Live means at least one snapshot has been applied.
	Live
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Live:
		return "live"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uninitialized":
		*s = Uninitialized
	case "live":
		*s = Live
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}
