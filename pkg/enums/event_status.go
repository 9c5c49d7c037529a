package enums

import "fmt"

// EventStatus is the projected lifecycle state of a registration record.
type EventStatus string

const (
	EventStatusCreated             EventStatus = "created"
	EventStatusDeclared            EventStatus = "declared"
	EventStatusValidated           EventStatus = "validated"
	EventStatusRegistered          EventStatus = "registered"
	EventStatusCorrectionRequested EventStatus = "correction_requested"
	EventStatusIssued              EventStatus = "issued"
	EventStatusRejected            EventStatus = "rejected"
	EventStatusArchived            EventStatus = "archived"
)

var validEventStatuses = []EventStatus{
	EventStatusCreated,
	EventStatusDeclared,
	EventStatusValidated,
	EventStatusRegistered,
	EventStatusCorrectionRequested,
	EventStatusIssued,
	EventStatusRejected,
	EventStatusArchived,
}

// String implements fmt.Stringer.
func (e EventStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventStatus.
func (e EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventStatus converts raw input into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (e EventStatus) IsTerminal() bool {
	return e == EventStatusIssued || e == EventStatusArchived
}
