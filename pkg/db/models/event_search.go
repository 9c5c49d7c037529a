package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// EventSearch is the flattened read-model row the deduplication engine
// queries. It is upserted asynchronously by the search indexer from committed
// actions and therefore trails the action log (eventual consistency).
type EventSearch struct {
	EventID    uuid.UUID         `gorm:"column:event_id;type:uuid;primaryKey"`
	Kind       enums.EventKind   `gorm:"column:kind;type:event_kind;not null"`
	Status     enums.EventStatus `gorm:"column:status;type:event_status;not null"`
	TrackingID string            `gorm:"column:tracking_id;not null;index:ix_event_search_tracking"`

	FirstNames  string `gorm:"column:first_names;not null;default:'';index:ix_event_search_first_names"`
	FamilyName  string `gorm:"column:family_name;not null;default:'';index:ix_event_search_family_name"`
	DateOfBirth string `gorm:"column:date_of_birth;not null;default:'';index:ix_event_search_dob"`
	Gender      string `gorm:"column:gender;not null;default:''"`
	PlaceOfEvent string `gorm:"column:place_of_event;not null;default:''"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the singular table name; the default pluralization does not
// match the migration.
func (EventSearch) TableName() string {
	return "event_search"
}
