package assignment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
)

// Repository defines persistence operations for task entries.
type Repository interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TaskEntry, error)
	Append(tx *gorm.DB, entry *models.TaskEntry) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// actionAppender writes the assign/unassign action row inside the same
// transaction as the task entry.
type actionAppender interface {
	AppendTx(tx *gorm.DB, action *models.EventAction) error
}

// Service tracks and releases record assignments.
type Service interface {
	Current(ctx context.Context, eventID uuid.UUID) (*Assignment, error)
	Assign(ctx context.Context, input AssignInput) (*Assignment, error)
	Unassign(ctx context.Context, input UnassignInput) error
}
