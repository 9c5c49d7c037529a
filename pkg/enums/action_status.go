package enums

import "fmt"

// ActionStatus tracks the confirmation state of a single action.
// Requested actions await an external confirmation and must be resolved by a
// follow-up action referencing the same action id.
type ActionStatus string

const (
	ActionStatusRequested ActionStatus = "requested"
	ActionStatusAccepted  ActionStatus = "accepted"
	ActionStatusRejected  ActionStatus = "rejected"
)

var validActionStatuses = []ActionStatus{
	ActionStatusRequested,
	ActionStatusAccepted,
	ActionStatusRejected,
}

// String implements fmt.Stringer.
func (a ActionStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActionStatus.
func (a ActionStatus) IsValid() bool {
	for _, candidate := range validActionStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionStatus converts raw input into an ActionStatus.
func ParseActionStatus(value string) (ActionStatus, error) {
	for _, candidate := range validActionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action status %q", value)
}
