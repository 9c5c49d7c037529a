// Package drafts stages in-progress actions per (record, action type,
// author). A draft never touches the action log; it is folded into reads as a
// speculative tail and deleted when the matching action commits.
package drafts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the drafts service.
func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) Put(ctx context.Context, input PutInput) (*models.EventDraft, error) {
	if input.EventID == uuid.Nil || input.Author == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and author are required")
	}
	if !input.ActionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid action type %q", input.ActionType))
	}
	if input.ActionType == enums.ActionDetectDuplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate flags are system-generated and cannot be drafted")
	}

	draft, err := s.repo.Upsert(ctx, &models.EventDraft{
		EventID:    input.EventID,
		ActionType: input.ActionType,
		CreatedBy:  input.Author,
		Data:       input.Data,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving draft")
	}
	return draft, nil
}

func (s *service) List(ctx context.Context, eventID, author uuid.UUID) ([]models.EventDraft, error) {
	list, err := s.repo.ListForAuthor(ctx, eventID, author)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing drafts")
	}
	return list, nil
}

func (s *service) Discard(ctx context.Context, eventID uuid.UUID, actionType enums.ActionType, author uuid.UUID) error {
	if !actionType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid action type %q", actionType))
	}
	if err := s.repo.Delete(ctx, eventID, actionType, author); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting draft")
	}
	return nil
}
