package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// EventAction is one committed or requested mutation attempt against an
// event. Rows are append-only: corrections and rejections are new rows, never
// edits, and no row is ever reordered or deleted.
type EventAction struct {
	ID     uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Seq    int64              `gorm:"column:seq;not null;autoIncrement;uniqueIndex:ux_event_actions_seq"`
	Type   enums.ActionType   `gorm:"column:type;type:action_type;not null"`
	Status enums.ActionStatus `gorm:"column:status;type:action_status;not null;default:'accepted'"`

	EventID uuid.UUID `gorm:"column:event_id;type:uuid;not null;index:ix_event_actions_event"`

	// TransactionID is caller-supplied, globally unique per logical attempt
	// and acts as the idempotency key at the store layer.
	TransactionID string `gorm:"column:transaction_id;not null;uniqueIndex:ux_event_actions_transaction_id"`

	// OriginalActionID links a follow-up row to the Requested action it
	// resolves.
	OriginalActionID *uuid.UUID `gorm:"column:original_action_id;type:uuid"`

	Data       types.Declaration `gorm:"column:data;type:jsonb"`
	Content    types.JSONMap     `gorm:"column:content;type:jsonb"`
	Annotation *string           `gorm:"column:annotation"`

	CreatedBy         uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedByRole     string    `gorm:"column:created_by_role;not null"`
	CreatedAtLocation string    `gorm:"column:created_at_location;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}
