package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// Event is the long-lived aggregate representing one life-event registration.
// Its state is never stored: it is always a pure function of the ordered
// action sequence. Events are never deleted.
type Event struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind       enums.EventKind `gorm:"column:kind;type:event_kind;not null"`
	TrackingID string          `gorm:"column:tracking_id;not null;uniqueIndex:ux_events_tracking_id"`
	Actions    []EventAction   `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
