package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// ActionCommittedEvent is emitted for every action appended to a record's
// log. The search indexer folds it into the event_search read model.
type ActionCommittedEvent struct {
	EventID     uuid.UUID          `json:"event_id"`
	Kind        enums.EventKind    `json:"kind"`
	TrackingID  string             `json:"tracking_id"`
	ActionID    uuid.UUID          `json:"action_id"`
	ActionType  enums.ActionType   `json:"action_type"`
	Status      enums.EventStatus  `json:"status"`
	Declaration types.Declaration  `json:"declaration,omitempty"`
	Flags       map[string]bool    `json:"flags,omitempty"`
}

// RecordUnassignedEvent is emitted when an assignment is released so
// downstream worklists drop the record from the assignee's queue.
type RecordUnassignedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	TrackingID string    `json:"tracking_id"`
	AssigneeID uuid.UUID `json:"assignee_id"`
	ActorID    uuid.UUID `json:"actor_id"`
}
