package assignment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a task entry repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TaskEntry, error) {
	var entries []models.TaskEntry
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("last_modified DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Append(tx *gorm.DB, entry *models.TaskEntry) error {
	return tx.Create(entry).Error
}
