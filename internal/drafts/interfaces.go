package drafts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Repository defines persistence operations for action drafts.
type Repository interface {
	Upsert(ctx context.Context, draft *models.EventDraft) (*models.EventDraft, error)
	ListForAuthor(ctx context.Context, eventID, author uuid.UUID) ([]models.EventDraft, error)
	Delete(ctx context.Context, eventID uuid.UUID, actionType enums.ActionType, author uuid.UUID) error
	// DeleteForActionTx removes every draft superseded by a committed action,
	// inside the commit transaction.
	DeleteForActionTx(tx *gorm.DB, eventID uuid.UUID, actionType enums.ActionType) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service is the draft staging surface.
type Service interface {
	Put(ctx context.Context, input PutInput) (*models.EventDraft, error)
	List(ctx context.Context, eventID, author uuid.UUID) ([]models.EventDraft, error)
	Discard(ctx context.Context, eventID uuid.UUID, actionType enums.ActionType, author uuid.UUID) error
}

// PutInput creates or revises the author's draft for one action type.
type PutInput struct {
	EventID    uuid.UUID
	ActionType enums.ActionType
	Author     uuid.UUID
	Data       types.Declaration
}
