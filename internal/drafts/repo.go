package drafts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a drafts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert revises the (event, action type, author) draft in place; only the
// newest revision is ever kept.
func (r *repository) Upsert(ctx context.Context, draft *models.EventDraft) (*models.EventDraft, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "event_id"},
				{Name: "action_type"},
				{Name: "created_by"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(draft).Error
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *repository) ListForAuthor(ctx context.Context, eventID, author uuid.UUID) ([]models.EventDraft, error) {
	var list []models.EventDraft
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND created_by = ?", eventID, author).
		Order("updated_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Delete(ctx context.Context, eventID uuid.UUID, actionType enums.ActionType, author uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND action_type = ? AND created_by = ?", eventID, actionType, author).
		Delete(&models.EventDraft{}).Error
}

func (r *repository) DeleteForActionTx(tx *gorm.DB, eventID uuid.UUID, actionType enums.ActionType) error {
	return tx.
		Where("event_id = ? AND action_type = ?", eventID, actionType).
		Delete(&models.EventDraft{}).Error
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.EventDraft{})
	return result.RowsAffected, result.Error
}
