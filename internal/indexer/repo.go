package indexer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the search read-model repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert replaces the row for the record. Later actions fully supersede
// earlier ones, so last-write-wins per record is the correct merge.
func (r *repository) Upsert(ctx context.Context, row *models.EventSearch) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"kind", "status", "tracking_id",
				"first_names", "family_name", "date_of_birth", "gender", "place_of_event",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *repository) Delete(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.EventSearch{}).Error
}
