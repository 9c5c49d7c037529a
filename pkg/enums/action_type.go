package enums

import "fmt"

// ActionType identifies one mutation attempt against a registration record.
// The set is closed; the projection dispatches reducers over it exhaustively.
type ActionType string

const (
	ActionDeclare           ActionType = "declare"
	ActionValidate          ActionType = "validate"
	ActionRegister          ActionType = "register"
	ActionReject            ActionType = "reject"
	ActionArchive           ActionType = "archive"
	ActionRequestCorrection ActionType = "request_correction"
	ActionApproveCorrection ActionType = "approve_correction"
	ActionIssue             ActionType = "issue"
	ActionDetectDuplicate   ActionType = "duplicate_detected"
	ActionMarkNotDuplicate  ActionType = "mark_not_duplicate"
	ActionAssign            ActionType = "assign"
	ActionUnassign          ActionType = "unassign"
)

var validActionTypes = []ActionType{
	ActionDeclare,
	ActionValidate,
	ActionRegister,
	ActionReject,
	ActionArchive,
	ActionRequestCorrection,
	ActionApproveCorrection,
	ActionIssue,
	ActionDetectDuplicate,
	ActionMarkNotDuplicate,
	ActionAssign,
	ActionUnassign,
}

// String implements fmt.Stringer.
func (a ActionType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActionType.
func (a ActionType) IsValid() bool {
	for _, candidate := range validActionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionType converts raw input into an ActionType.
func ParseActionType(value string) (ActionType, error) {
	for _, candidate := range validActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action type %q", value)
}

// RequiresDedupCheck reports whether the action must pass the duplicate
// search before it can be committed.
func (a ActionType) RequiresDedupCheck() bool {
	return a == ActionValidate || a == ActionRegister
}

// MutatesDeclaration reports whether the action carries declaration data
// that the projection merges into current state.
func (a ActionType) MutatesDeclaration() bool {
	switch a {
	case ActionDeclare, ActionValidate, ActionRegister, ActionApproveCorrection:
		return true
	}
	return false
}
