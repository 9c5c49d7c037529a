package drafts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

func setupDraftsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:drafts_repo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS event_drafts (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  action_type TEXT NOT NULL,
  created_by TEXT NOT NULL,
  data TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (event_id, action_type, created_by)
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM event_drafts`).Error)
	return db
}

func TestUpsertRevisesExistingDraft(t *testing.T) {
	db := setupDraftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := uuid.New()
	author := uuid.New()

	_, err := repo.Upsert(ctx, &models.EventDraft{
		ID:         uuid.New(),
		EventID:    eventID,
		ActionType: enums.ActionValidate,
		CreatedBy:  author,
		Data:       types.Declaration{"firstNames": "Jane"},
	})
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, &models.EventDraft{
		ID:         uuid.New(),
		EventID:    eventID,
		ActionType: enums.ActionValidate,
		CreatedBy:  author,
		Data:       types.Declaration{"firstNames": "Janet"},
	})
	require.NoError(t, err)

	list, err := repo.ListForAuthor(ctx, eventID, author)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Janet", list[0].Data.StringField("firstNames"))
}

func TestDraftsScopedToAuthor(t *testing.T) {
	db := setupDraftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	for _, author := range []uuid.UUID{alice, bob} {
		_, err := repo.Upsert(ctx, &models.EventDraft{
			ID:         uuid.New(),
			EventID:    eventID,
			ActionType: enums.ActionValidate,
			CreatedBy:  author,
			Data:       types.Declaration{"author": author.String()},
		})
		require.NoError(t, err)
	}

	list, err := repo.ListForAuthor(ctx, eventID, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice, list[0].CreatedBy)
}

func TestDeleteForActionClearsAllAuthors(t *testing.T) {
	db := setupDraftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := uuid.New()
	for i := 0; i < 2; i++ {
		_, err := repo.Upsert(ctx, &models.EventDraft{
			ID:         uuid.New(),
			EventID:    eventID,
			ActionType: enums.ActionRegister,
			CreatedBy:  uuid.New(),
		})
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteForActionTx(db, eventID, enums.ActionRegister))

	var count int64
	require.NoError(t, db.Model(&models.EventDraft{}).Where("event_id = ?", eventID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupDraftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	stale := models.EventDraft{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		ActionType: enums.ActionValidate,
		CreatedBy:  uuid.New(),
	}
	_, err := repo.Upsert(ctx, &stale)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.EventDraft{}).
		Where("id = ?", stale.ID).
		Update("updated_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := models.EventDraft{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		ActionType: enums.ActionValidate,
		CreatedBy:  uuid.New(),
	}
	_, err = repo.Upsert(ctx, &fresh)
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	require.NoError(t, db.Model(&models.EventDraft{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
