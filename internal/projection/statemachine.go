package projection

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// transitions lists, per action type, the statuses it may be committed from.
var transitions = map[enums.ActionType][]enums.EventStatus{
	enums.ActionDeclare:  {enums.EventStatusCreated},
	enums.ActionValidate: {enums.EventStatusDeclared},
	enums.ActionRegister: {enums.EventStatusValidated},
	enums.ActionIssue:    {enums.EventStatusRegistered},

	enums.ActionRequestCorrection: {enums.EventStatusRegistered},
	enums.ActionApproveCorrection: {enums.EventStatusCorrectionRequested},

	// Reachable from any pre-registered state.
	enums.ActionReject: {
		enums.EventStatusCreated,
		enums.EventStatusDeclared,
		enums.EventStatusValidated,
	},
	enums.ActionArchive: {
		enums.EventStatusCreated,
		enums.EventStatusDeclared,
		enums.EventStatusValidated,
	},
}

// forwardActions are blocked while the duplicate flag is raised.
var forwardActions = map[enums.ActionType]bool{
	enums.ActionValidate:          true,
	enums.ActionRegister:          true,
	enums.ActionIssue:             true,
	enums.ActionApproveCorrection: true,
}

// CheckTransition reports whether the action type is a legal next step for
// the projected state. It is evaluated before append; an illegal transition
// is never written to the log.
func CheckTransition(state CurrentState, action enums.ActionType) error {
	if state.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("record is %s and accepts no further actions", state.Status))
	}

	switch action {
	case enums.ActionDetectDuplicate:
		return nil
	case enums.ActionMarkNotDuplicate:
		if !state.Flags.DuplicateDetected {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "record is not flagged as a duplicate")
		}
		return nil
	case enums.ActionAssign, enums.ActionUnassign:
		return nil
	}

	if state.Flags.DuplicateDetected && forwardActions[action] {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			"record is flagged as a possible duplicate; resolve the flag first")
	}

	allowed, ok := transitions[action]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action type %s", action))
	}
	for _, from := range allowed {
		if from == state.Status {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("action %s is not legal from status %s", action, state.Status))
}
