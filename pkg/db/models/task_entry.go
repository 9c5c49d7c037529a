package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// TaskEntry is one revision of the task-like sub-resource attached to an
// event. Every committed action appends a new entry carrying the post-action
// computed status; assignment markers are entries with the assigned or
// unassigned extension. Revisions are never rewritten: the current entry is
// the most recent one, everything older is history, and the assignment
// tracker scans both.
type TaskEntry struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID           `gorm:"column:event_id;type:uuid;not null;index:ix_task_entries_event"`
	Status       enums.EventStatus   `gorm:"column:status;type:event_status;not null"`
	Extension    enums.TaskExtension `gorm:"column:extension_url;not null"`
	AssigneeID   *uuid.UUID          `gorm:"column:assignee_id;type:uuid"`
	ActorID      uuid.UUID           `gorm:"column:actor_id;type:uuid;not null"`
	// AssigneeScopes are the scopes proven for the assignee at claim time,
	// empty when the record was assigned to someone other than the caller.
	AssigneeScopes string `gorm:"column:assignee_scopes;not null;default:''"`
	LastModified time.Time           `gorm:"column:last_modified;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}
