package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/auth"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
)

type stubRepo struct {
	entries  []models.TaskEntry
	appended []models.TaskEntry
}

func (s *stubRepo) ListByEvent(context.Context, uuid.UUID) ([]models.TaskEntry, error) {
	all := append([]models.TaskEntry{}, s.entries...)
	return append(all, s.appended...), nil
}

func (s *stubRepo) Append(_ *gorm.DB, entry *models.TaskEntry) error {
	s.appended = append(s.appended, *entry)
	return nil
}

type stubAppender struct {
	actions []models.EventAction
}

func (s *stubAppender) AppendTx(_ *gorm.DB, action *models.EventAction) error {
	s.actions = append(s.actions, *action)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(repo *stubRepo) (Service, *stubAppender, *stubOutbox) {
	appender := &stubAppender{}
	publisher := &stubOutbox{}
	svc := NewService(repo, appender, stubTx{}, publisher, logger.NewNop())
	return svc, appender, publisher
}

func assigned(assignee uuid.UUID, scopes string, minute int) models.TaskEntry {
	return models.TaskEntry{
		EventID:        uuid.New(),
		Status:         enums.EventStatusDeclared,
		Extension:      enums.TaskExtensionAssigned,
		AssigneeID:     &assignee,
		ActorID:        assignee,
		AssigneeScopes: scopes,
		LastModified:   time.Date(2026, 1, 1, 10, minute, 0, 0, time.UTC),
	}
}

func TestAssignThenUnassignLifecycle(t *testing.T) {
	repo := &stubRepo{}
	svc, appender, publisher := newTestService(repo)
	ctx := context.Background()

	eventID := uuid.New()
	actor := uuid.New()

	claim, err := svc.Assign(ctx, AssignInput{
		EventID:       eventID,
		Status:        enums.EventStatusDeclared,
		TransactionID: "txn-assign-1",
		AssigneeID:    actor,
		ActorID:       actor,
		ActorRole:     "registrar",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if claim.AssigneeID != actor {
		t.Fatalf("wrong assignee: %#v", claim)
	}

	current, err := svc.Current(ctx, eventID)
	if err != nil || current == nil || current.AssigneeID != actor {
		t.Fatalf("expected active claim, got %#v err %v", current, err)
	}

	err = svc.Unassign(ctx, UnassignInput{
		EventID:       eventID,
		TransactionID: "txn-unassign-1",
		ActorID:       actor,
		ActorRole:     "registrar",
	})
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}

	current, err = svc.Current(ctx, eventID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current != nil {
		t.Fatalf("expected no assignee after release, got %#v", current)
	}

	if len(appender.actions) != 2 {
		t.Fatalf("expected assign+unassign action rows, got %d", len(appender.actions))
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventRecordUnassigned {
		t.Fatalf("expected one unassigned outbox event, got %#v", publisher.events)
	}
}

func TestSecondUnassignIsStateConflict(t *testing.T) {
	actor := uuid.New()
	repo := &stubRepo{}
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, AssignInput{
		EventID: uuid.New(), AssigneeID: actor, ActorID: actor, TransactionID: "t1",
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	eventID := repo.appended[0].EventID

	if err := svc.Unassign(ctx, UnassignInput{EventID: eventID, ActorID: actor, TransactionID: "t2"}); err != nil {
		t.Fatalf("first unassign: %v", err)
	}

	err := svc.Unassign(ctx, UnassignInput{EventID: eventID, ActorID: actor, TransactionID: "t3"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected AlreadyUnassigned state conflict, got %v", err)
	}
}

func TestUnassignPermissions(t *testing.T) {
	assignee := uuid.New()
	stranger := uuid.New()
	elevated := string(auth.ScopeRecordUnassignOthers)

	cases := []struct {
		name           string
		assigneeScopes string
		actorID        uuid.UUID
		actorScopes    []string
		wantCode       pkgerrors.Code
	}{
		{"assignee releases own claim", "", assignee, nil, ""},
		{"stranger without elevated scope", "", stranger, nil, pkgerrors.CodeForbidden},
		{"elevated actor releases normal assignee", "", stranger, []string{elevated}, ""},
		{"elevated assignee cannot be force-released", elevated, stranger, []string{elevated}, pkgerrors.CodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := assigned(assignee, tc.assigneeScopes, 1)
			repo := &stubRepo{entries: []models.TaskEntry{entry}}
			svc, _, _ := newTestService(repo)

			err := svc.Unassign(context.Background(), UnassignInput{
				EventID:       entry.EventID,
				TransactionID: "txn",
				ActorID:       tc.actorID,
				ActorScopes:   tc.actorScopes,
			})
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			coded := pkgerrors.As(err)
			if coded == nil || coded.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestAssignToAnotherDoesNotInheritAssignerScopes(t *testing.T) {
	supervisor := uuid.New()
	junior := uuid.New()
	elevated := string(auth.ScopeRecordUnassignOthers)
	repo := &stubRepo{}
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	// An elevated supervisor hands the record to a junior registrar. The
	// junior must not inherit the supervisor's elevated scope, or they would
	// become force-release-proof.
	claim, err := svc.Assign(ctx, AssignInput{
		EventID:       uuid.New(),
		Status:        enums.EventStatusDeclared,
		TransactionID: "txn-delegate",
		AssigneeID:    junior,
		ActorID:       supervisor,
		ActorScopes:   []string{elevated},
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(claim.AssigneeScopes) != 0 {
		t.Fatalf("expected no scopes recorded for the delegated assignee, got %v", claim.AssigneeScopes)
	}
	if repo.appended[0].AssigneeScopes != "" {
		t.Fatalf("expected empty stored assignee scopes, got %q", repo.appended[0].AssigneeScopes)
	}

	// Another elevated actor can therefore still force-release the junior.
	err = svc.Unassign(ctx, UnassignInput{
		EventID:       repo.appended[0].EventID,
		TransactionID: "txn-force-release",
		ActorID:       uuid.New(),
		ActorScopes:   []string{elevated},
	})
	if err != nil {
		t.Fatalf("force release: %v", err)
	}
}

func TestAssignConflictsWhenHeldByAnother(t *testing.T) {
	holder := uuid.New()
	entry := assigned(holder, "", 1)
	repo := &stubRepo{entries: []models.TaskEntry{entry}}
	svc, _, _ := newTestService(repo)

	_, err := svc.Assign(context.Background(), AssignInput{
		EventID:       entry.EventID,
		TransactionID: "txn",
		AssigneeID:    uuid.New(),
		ActorID:       uuid.New(),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
