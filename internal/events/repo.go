package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the action log repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(tx *gorm.DB, event *models.Event) error {
	return tx.Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindActionByTransactionID(ctx context.Context, transactionID string) (*models.EventAction, error) {
	var action models.EventAction
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

// AppendTx writes one action row. The unique transaction_id index is the
// idempotency backstop; callers translate the violation.
func (r *repository) AppendTx(tx *gorm.DB, action *models.EventAction) error {
	return tx.Create(action).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Event, error) {
	query := r.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("tracking_id = ?", trackingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
