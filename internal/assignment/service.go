package assignment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/auth"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type service struct {
	repo    Repository
	actions actionAppender
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the assignment tracker service.
func NewService(repo Repository, actions actionAppender, tx txRunner, publisher outboxPublisher, logg *logger.Logger) Service {
	return &service{
		repo:    repo,
		actions: actions,
		tx:      tx,
		outbox:  publisher,
		logg:    logg,
		now:     time.Now,
	}
}

// Current resolves the active claim on the record, or nil when unassigned.
func (s *service) Current(ctx context.Context, eventID uuid.UUID) (*Assignment, error) {
	entries, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading task entries")
	}
	return CurrentAssignee(entries), nil
}

// Assign claims the record for the assignee. Claiming a record already held
// by a different actor is a state conflict; re-claiming by the same actor is
// a no-op that returns the existing claim.
func (s *service) Assign(ctx context.Context, input AssignInput) (*Assignment, error) {
	current, err := s.Current(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.AssigneeID == input.AssigneeID {
			return current, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record is already assigned to another actor")
	}

	// The token only proves the caller's scopes. When the caller claims the
	// record for themselves those are the assignee's scopes; when claiming it
	// for someone else the assignee's scopes are unknown and recorded empty,
	// which release checks treat as non-elevated.
	assigneeScopes := input.ActorScopes
	if input.AssigneeID != input.ActorID {
		assigneeScopes = nil
	}

	now := s.now()
	entry := &models.TaskEntry{
		EventID:        input.EventID,
		Status:         input.Status,
		Extension:      enums.TaskExtensionAssigned,
		AssigneeID:     &input.AssigneeID,
		ActorID:        input.ActorID,
		AssigneeScopes: strings.Join(assigneeScopes, " "),
		LastModified:   now,
	}
	action := &models.EventAction{
		Type:              enums.ActionAssign,
		Status:            enums.ActionStatusAccepted,
		EventID:           input.EventID,
		TransactionID:     input.TransactionID,
		Content:           types.JSONMap{"assigneeId": input.AssigneeID.String()},
		CreatedBy:         input.ActorID,
		CreatedByRole:     input.ActorRole,
		CreatedAtLocation: input.Location,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.actions.AppendTx(tx, action); err != nil {
			return err
		}
		return s.repo.Append(tx, entry)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording assignment")
	}

	s.logg.Info(s.logg.WithRecordID(ctx, input.EventID.String()), "record assigned")
	return &Assignment{
		AssigneeID:     input.AssigneeID,
		AssignedBy:     input.ActorID,
		AssigneeScopes: assigneeScopes,
		Status:         input.Status,
		Since:          now,
	}, nil
}

// Unassign releases the current claim. Only the assignee may release it, or
// an actor holding the elevated scope when the assignee does not hold it; a
// second release fails with a state conflict.
func (s *service) Unassign(ctx context.Context, input UnassignInput) error {
	current, err := s.Current(ctx, input.EventID)
	if err != nil {
		return err
	}
	if current == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "record is already unassigned")
	}
	if err := authorizeRelease(current, input.ActorID, input.ActorScopes); err != nil {
		return err
	}

	entry := &models.TaskEntry{
		EventID:        input.EventID,
		Status:         current.Status,
		Extension:      enums.TaskExtensionUnassigned,
		AssigneeID:     &current.AssigneeID,
		ActorID:        input.ActorID,
		AssigneeScopes: strings.Join(current.AssigneeScopes, " "),
		LastModified:   s.now(),
	}
	action := &models.EventAction{
		Type:              enums.ActionUnassign,
		Status:            enums.ActionStatusAccepted,
		EventID:           input.EventID,
		TransactionID:     input.TransactionID,
		Content:           types.JSONMap{"assigneeId": current.AssigneeID.String()},
		CreatedBy:         input.ActorID,
		CreatedByRole:     input.ActorRole,
		CreatedAtLocation: input.Location,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.actions.AppendTx(tx, action); err != nil {
			return err
		}
		if err := s.repo.Append(tx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRecordUnassigned,
			AggregateType: enums.AggregateTask,
			AggregateID:   input.EventID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Data: payloads.RecordUnassignedEvent{
				EventID:    input.EventID,
				TrackingID: input.TrackingID,
				AssigneeID: current.AssigneeID,
				ActorID:    input.ActorID,
			},
			Version: 1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording unassignment")
	}

	s.logg.Info(s.logg.WithRecordID(ctx, input.EventID.String()), "record unassigned")
	return nil
}

// authorizeRelease enforces the release rules: the assignee always may; an
// elevated actor may release a non-elevated assignee; nobody else may, and a
// non-elevated actor never force-releases an elevated one.
func authorizeRelease(current *Assignment, actorID uuid.UUID, actorScopes []string) error {
	if current.AssigneeID == actorID {
		return nil
	}
	elevated := string(auth.ScopeRecordUnassignOthers)
	if !hasScope(actorScopes, elevated) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the assignee may release this record")
	}
	if hasScope(current.AssigneeScopes, elevated) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "assignee holds elevated scope and cannot be force-released")
	}
	return nil
}
