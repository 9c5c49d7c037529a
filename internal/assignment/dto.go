package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// Assignment is the derived current claim on a record. It is computed from
// task entry markers, never stored.
type Assignment struct {
	AssigneeID     uuid.UUID         `json:"assigneeId"`
	AssignedBy     uuid.UUID         `json:"assignedBy"`
	AssigneeScopes []string          `json:"-"`
	Status         enums.EventStatus `json:"status"`
	Since          time.Time         `json:"since"`
}

// AssignInput claims a record for one actor.
type AssignInput struct {
	EventID       uuid.UUID
	TrackingID    string
	Status        enums.EventStatus
	TransactionID string
	AssigneeID    uuid.UUID
	ActorID       uuid.UUID
	ActorRole     string
	ActorScopes   []string
	Location      string
}

// UnassignInput identifies the record and the actor releasing it.
type UnassignInput struct {
	EventID       uuid.UUID
	TrackingID    string
	TransactionID string
	ActorID       uuid.UUID
	ActorRole     string
	ActorScopes   []string
	Location      string
}
