package projection

import (
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Flags carries the side-branch markers computed during replay.
type Flags struct {
	// DuplicateDetected blocks forward transitions until resolved.
	DuplicateDetected bool `json:"duplicateDetected"`
	// NotDuplicate records an explicit human resolution; the dedup engine
	// uses it to short-circuit repeated searches over unchanged data.
	NotDuplicate bool `json:"notDuplicate"`
	// PendingRequested is true while any action still awaits external
	// confirmation.
	PendingRequested bool `json:"pendingRequested"`
}

// CurrentState is the materialized view of one event: the merged declaration,
// the status per the registration state machine, and replay flags. It is
// always recomputed from the action sequence, never stored.
type CurrentState struct {
	Declaration types.Declaration `json:"declaration"`
	Status      enums.EventStatus `json:"status"`
	Flags       Flags             `json:"flags"`
}
