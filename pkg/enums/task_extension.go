package enums

import "fmt"

// TaskExtension discriminates the side-marker carried by a task entry.
// The assignment tracker only reads the assigned/unassigned markers; the
// remaining values exist for audit trails written alongside actions.
type TaskExtension string

const (
	TaskExtensionAssigned     TaskExtension = "http://civreg.dev/extension/regAssigned"
	TaskExtensionUnassigned   TaskExtension = "http://civreg.dev/extension/regUnassigned"
	TaskExtensionStatusUpdate TaskExtension = "http://civreg.dev/extension/regStatus"
	TaskExtensionDowngraded   TaskExtension = "http://civreg.dev/extension/regDowngraded"
)

var validTaskExtensions = []TaskExtension{
	TaskExtensionAssigned,
	TaskExtensionUnassigned,
	TaskExtensionStatusUpdate,
	TaskExtensionDowngraded,
}

// String implements fmt.Stringer.
func (t TaskExtension) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskExtension.
func (t TaskExtension) IsValid() bool {
	for _, candidate := range validTaskExtensions {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskExtension converts raw input into a TaskExtension.
func ParseTaskExtension(value string) (TaskExtension, error) {
	for _, candidate := range validTaskExtensions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task extension %q", value)
}
