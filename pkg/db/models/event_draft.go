package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// EventDraft is an unpersisted-into-the-log staging action scoped to one
// (event, action type, author) triple. A draft is superseded by the
// corresponding committed action and deleted on commit.
type EventDraft struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID         `gorm:"column:event_id;type:uuid;not null;uniqueIndex:ux_event_drafts_scope,priority:1"`
	ActionType enums.ActionType  `gorm:"column:action_type;type:action_type;not null;uniqueIndex:ux_event_drafts_scope,priority:2"`
	CreatedBy  uuid.UUID         `gorm:"column:created_by;type:uuid;not null;uniqueIndex:ux_event_drafts_scope,priority:3"`
	Data       types.Declaration `gorm:"column:data;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
