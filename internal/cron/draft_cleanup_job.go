package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/civreg-backend/pkg/logger"
)

const defaultDraftMaxAge = 30 * 24 * time.Hour

type draftCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type DraftCleanupJobParams struct {
	Logger     *logger.Logger
	Repository draftCleanupRepo
	MaxAge     time.Duration
}

// NewDraftCleanupJob deletes drafts that have not been revised within the
// configured age. Committed actions already delete their superseded drafts;
// this sweeps the abandoned remainder.
func NewDraftCleanupJob(params DraftCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("drafts repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultDraftMaxAge
	}
	return &draftCleanupJob{
		logg:   params.Logger,
		repo:   params.Repository,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type draftCleanupJob struct {
	logg   *logger.Logger
	repo   draftCleanupRepo
	maxAge time.Duration
	now    func() time.Time
}

func (j *draftCleanupJob) Name() string { return "draft-cleanup" }

func (j *draftCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("draft cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"max_age":      j.maxAge.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale draft cleanup complete")
	return nil
}
