package enums

import "fmt"

// EventKind selects the declaration schema for a registration record.
type EventKind string

const (
	EventKindBirth    EventKind = "birth"
	EventKindDeath    EventKind = "death"
	EventKindMarriage EventKind = "marriage"
)

var validEventKinds = []EventKind{
	EventKindBirth,
	EventKindDeath,
	EventKindMarriage,
}

// String implements fmt.Stringer.
func (e EventKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventKind.
func (e EventKind) IsValid() bool {
	for _, candidate := range validEventKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventKind converts raw input into an EventKind.
func ParseEventKind(value string) (EventKind, error) {
	for _, candidate := range validEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event kind %q", value)
}

// TrackingIDPrefix returns the leading letter of a tracking id for the kind.
func (e EventKind) TrackingIDPrefix() string {
	switch e {
	case EventKindBirth:
		return "B"
	case EventKindDeath:
		return "D"
	case EventKindMarriage:
		return "M"
	}
	return "R"
}
