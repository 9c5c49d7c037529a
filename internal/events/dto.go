package events

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/internal/assignment"
	"github.com/angelmondragon/civreg-backend/internal/projection"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Actor is the authenticated caller submitting an action.
type Actor struct {
	UserID   uuid.UUID
	Role     string
	OfficeID string
	Scopes   []string
}

// ActionInput is one inbound action submission. EventID is nil only for
// declare, which creates the record.
type ActionInput struct {
	EventID       uuid.UUID
	Kind          enums.EventKind
	Type          enums.ActionType
	TransactionID string
	Declaration   types.Declaration
	Annotation    *string
	AssigneeID    *uuid.UUID
	// OriginalActionID marks this submission as the follow-up resolving a
	// previously Requested action (external confirmation callbacks).
	OriginalActionID *uuid.UUID
	Actor            Actor
}

// GetOptions controls how much of the record a read returns.
type GetOptions struct {
	// IncludeDrafts folds the author's active drafts into the projection
	// and returns them alongside the record.
	IncludeDrafts bool
	// IncludeHistory returns the full task entry history (all revisions).
	IncludeHistory bool
	Author         uuid.UUID
}

// EventView is a record plus everything derived from its action log.
type EventView struct {
	Event       models.Event            `json:"event"`
	State       projection.CurrentState `json:"state"`
	Assignee    *assignment.Assignment  `json:"assignee,omitempty"`
	Drafts      []models.EventDraft     `json:"drafts,omitempty"`
	TaskHistory []models.TaskEntry      `json:"taskHistory,omitempty"`
}

// ActionResult is returned from every submission: the committed (or prior,
// for idempotent replays) action and the updated record view.
type ActionResult struct {
	Action models.EventAction `json:"action"`
	// Deduplicated is true when the router substituted a DUPLICATE_DETECTED
	// action for the requested one.
	Deduplicated bool      `json:"deduplicated"`
	Event        EventView `json:"event"`
}

// ListFilters narrows record listings.
type ListFilters struct {
	Kind   *enums.EventKind
	Status *enums.EventStatus
}

// EventSummary is one row in a listing.
type EventSummary struct {
	Event models.Event            `json:"event"`
	State projection.CurrentState `json:"state"`
}

// EventPage is a cursor-paginated listing result.
type EventPage struct {
	Items      []EventSummary `json:"items"`
	NextCursor *string        `json:"nextCursor,omitempty"`
}
