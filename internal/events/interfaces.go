package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/internal/assignment"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/pagination"
)

// Repository defines persistence operations for the action log.
type Repository interface {
	CreateTx(tx *gorm.DB, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindActionByTransactionID(ctx context.Context, transactionID string) (*models.EventAction, error)
	AppendTx(tx *gorm.DB, action *models.EventAction) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Event, error)
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// conflictGuard is the per-(record, action type) advisory lock surface.
type conflictGuard interface {
	Acquire(ctx context.Context, recordID uuid.UUID, actionType enums.ActionType) (lease, error)
}

// lease is one held lock.
type lease interface {
	Release(ctx context.Context) error
}

// assignmentService is the subset of the tracker the router needs.
type assignmentService interface {
	Current(ctx context.Context, eventID uuid.UUID) (*assignment.Assignment, error)
	Assign(ctx context.Context, input assignment.AssignInput) (*assignment.Assignment, error)
	Unassign(ctx context.Context, input assignment.UnassignInput) error
}

// taskEntries reads and writes the task entry revisions.
type taskEntries interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TaskEntry, error)
	Append(tx *gorm.DB, entry *models.TaskEntry) error
}

// draftStore is the subset of the drafts repository the router touches.
type draftStore interface {
	ListForAuthor(ctx context.Context, eventID, author uuid.UUID) ([]models.EventDraft, error)
	DeleteForActionTx(tx *gorm.DB, eventID uuid.UUID, actionType enums.ActionType) error
}

// Service is the action router: it authorizes, guards, deduplicates and
// appends inbound actions, and serves record reads.
type Service interface {
	ProcessAction(ctx context.Context, input ActionInput) (*ActionResult, error)
	Get(ctx context.Context, eventID uuid.UUID, opts GetOptions) (*EventView, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*EventPage, error)
}
