// Package events is the action router: every inbound mutation flows through
// ProcessAction, which authorizes the caller, enforces idempotency and the
// per-action conflict guard, checks transition legality against the
// projection, consults the dedup engine for gated actions and finally appends
// to the log in one transaction.
package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/internal/assignment"
	"github.com/angelmondragon/civreg-backend/internal/conflict"
	"github.com/angelmondragon/civreg-backend/internal/dedup"
	"github.com/angelmondragon/civreg-backend/internal/projection"
	"github.com/angelmondragon/civreg-backend/pkg/auth"
	"github.com/angelmondragon/civreg-backend/pkg/db"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/metrics"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/civreg-backend/pkg/pagination"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type service struct {
	repo        Repository
	tasks       taskEntries
	draftsRepo  draftStore
	tx          txRunner
	guard       conflictGuard
	dedupEngine dedup.Engine
	assignments assignmentService
	outbox      outboxPublisher
	metrics     *metrics.ActionMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// Deps carries the router's collaborators.
type Deps struct {
	Repo        Repository
	Tasks       taskEntries
	Drafts      draftStore
	Tx          txRunner
	Guard       *conflict.Guard
	Dedup       dedup.Engine
	Assignments assignmentService
	Outbox      outboxPublisher
	Metrics     *metrics.ActionMetrics
	Logger      *logger.Logger
}

// NewService builds the action router.
func NewService(deps Deps) Service {
	return &service{
		repo:        deps.Repo,
		tasks:       deps.Tasks,
		draftsRepo:  deps.Drafts,
		tx:          deps.Tx,
		guard:       guardAdapter{deps.Guard},
		dedupEngine: deps.Dedup,
		assignments: deps.Assignments,
		outbox:      deps.Outbox,
		metrics:     deps.Metrics,
		logg:        deps.Logger,
		now:         time.Now,
	}
}

type guardAdapter struct {
	guard *conflict.Guard
}

func (a guardAdapter) Acquire(ctx context.Context, recordID uuid.UUID, actionType enums.ActionType) (lease, error) {
	return a.guard.Acquire(ctx, recordID, actionType)
}

// ProcessAction routes one inbound action end to end.
func (s *service) ProcessAction(ctx context.Context, input ActionInput) (*ActionResult, error) {
	ctx = s.logg.WithActionType(ctx, string(input.Type))

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !actorAuthorized(input.Actor, input.Type) {
		s.metrics.IncRejected(string(input.Type), "forbidden")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("caller scopes do not permit %s", input.Type))
	}

	// Idempotency first: a retry must return the prior result, never append.
	if prior, err := s.repo.FindActionByTransactionID(ctx, input.TransactionID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transaction lookup")
	} else if prior != nil {
		return s.replayResult(ctx, prior, input)
	}

	if input.Type == enums.ActionDeclare {
		return s.declare(ctx, input)
	}

	ctx = s.logg.WithRecordID(ctx, input.EventID.String())
	event, err := s.loadEvent(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	// Held from before the dedup search until append completes, so two
	// concurrent identical-type requests cannot both believe they are first.
	guardLease, err := s.guard.Acquire(ctx, event.ID, input.Type)
	if err != nil {
		s.metrics.IncRejected(string(input.Type), "conflict")
		return nil, err
	}
	defer func() {
		if releaseErr := guardLease.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.logg.Warn(ctx, "failed to release action lock: "+releaseErr.Error())
		}
	}()

	switch input.Type {
	case enums.ActionAssign:
		return s.assign(ctx, event, input)
	case enums.ActionUnassign:
		return s.unassign(ctx, event, input)
	}

	state := projection.Project(event.Actions, nil)
	if err := projection.CheckTransition(state, input.Type); err != nil {
		s.metrics.IncRejected(string(input.Type), "illegal_transition")
		return nil, err
	}

	if input.Type.RequiresDedupCheck() {
		hits, err := s.runDedup(ctx, event, state, input)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return s.flagDuplicate(ctx, event, state, input, hits)
		}
	}

	return s.commit(ctx, event, state, input)
}

func validateInput(input ActionInput) error {
	if input.TransactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transactionId is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid action type %q", input.Type))
	}
	if input.Type == enums.ActionDetectDuplicate {
		return pkgerrors.New(pkgerrors.CodeValidation, "duplicate flags are system-generated")
	}
	if input.Type == enums.ActionDeclare {
		if !input.Kind.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid event kind %q", input.Kind))
		}
		return nil
	}
	if input.EventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recordID is required")
	}
	if input.Type == enums.ActionAssign && input.AssigneeID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "assigneeId is required")
	}
	return nil
}

func actorAuthorized(actor Actor, action enums.ActionType) bool {
	for _, allowed := range auth.AllowedScopes(action) {
		for _, held := range actor.Scopes {
			if held == string(allowed) {
				return true
			}
		}
	}
	return false
}

// replayResult serves a transaction-id retry: same record returns the prior
// committed action and current state; a different record is a reuse error.
func (s *service) replayResult(ctx context.Context, prior *models.EventAction, input ActionInput) (*ActionResult, error) {
	if input.Type != enums.ActionDeclare && prior.EventID != input.EventID {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency,
			"transaction id was already used for a different record")
	}
	view, err := s.Get(ctx, prior.EventID, GetOptions{})
	if err != nil {
		return nil, err
	}
	return &ActionResult{
		Action:       *prior,
		Deduplicated: prior.Type == enums.ActionDetectDuplicate,
		Event:        *view,
	}, nil
}

func (s *service) loadEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading record")
	}
	return event, nil
}

// declare creates the record and appends the first action in one transaction.
func (s *service) declare(ctx context.Context, input ActionInput) (*ActionResult, error) {
	trackingID, err := s.newTrackingID(ctx, input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generating tracking id")
	}

	event := &models.Event{
		ID:         uuid.New(),
		Kind:       input.Kind,
		TrackingID: trackingID,
	}
	action := s.buildAction(event.ID, input, nil)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, event); err != nil {
			return err
		}
		return s.appendCommitted(ctx, tx, event, action, enums.EventStatusDeclared, nil)
	})
	if err != nil {
		return s.translateAppendErr(ctx, err, input)
	}

	s.metrics.IncProcessed(string(input.Type), string(enums.ActionStatusAccepted))
	s.logg.Info(s.logg.WithRecordID(ctx, event.ID.String()), "record declared")
	return s.result(ctx, action, false)
}

// assign and unassign route through the assignment tracker, which appends
// both the action row and the task entry marker.
func (s *service) assign(ctx context.Context, event *models.Event, input ActionInput) (*ActionResult, error) {
	state := projection.Project(event.Actions, nil)
	if err := projection.CheckTransition(state, input.Type); err != nil {
		return nil, err
	}
	_, err := s.assignments.Assign(ctx, assignment.AssignInput{
		EventID:       event.ID,
		TrackingID:    event.TrackingID,
		Status:        state.Status,
		TransactionID: input.TransactionID,
		AssigneeID:    *input.AssigneeID,
		ActorID:       input.Actor.UserID,
		ActorRole:     input.Actor.Role,
		ActorScopes:   input.Actor.Scopes,
		Location:      input.Actor.OfficeID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncProcessed(string(input.Type), string(enums.ActionStatusAccepted))
	return s.resultByTransaction(ctx, input.TransactionID)
}

func (s *service) unassign(ctx context.Context, event *models.Event, input ActionInput) (*ActionResult, error) {
	err := s.assignments.Unassign(ctx, assignment.UnassignInput{
		EventID:       event.ID,
		TrackingID:    event.TrackingID,
		TransactionID: input.TransactionID,
		ActorID:       input.Actor.UserID,
		ActorRole:     input.Actor.Role,
		ActorScopes:   input.Actor.Scopes,
		Location:      input.Actor.OfficeID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncProcessed(string(input.Type), string(enums.ActionStatusAccepted))
	return s.resultByTransaction(ctx, input.TransactionID)
}

// runDedup applies the gating rules: skip when the record was explicitly
// marked not-duplicate and the prospective declaration is unchanged.
func (s *service) runDedup(ctx context.Context, event *models.Event, state projection.CurrentState, input ActionInput) ([]dedup.Candidate, error) {
	future := state.Declaration
	if len(input.Declaration) > 0 {
		future = projectWith(event, *s.buildAction(event.ID, input, nil)).Declaration
	}

	if state.Flags.NotDuplicate && reflect.DeepEqual(state.Declaration, future) {
		return nil, nil
	}

	hits, err := s.dedupEngine.Search(ctx, event.Kind, future, event.ID)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// flagDuplicate appends a system DUPLICATE_DETECTED action instead of the
// requested one. This is a successful outcome for the caller, not an error.
func (s *service) flagDuplicate(ctx context.Context, event *models.Event, state projection.CurrentState, input ActionInput, hits []dedup.Candidate) (*ActionResult, error) {
	duplicateIDs := make([]any, 0, len(hits))
	trackingIDs := make([]any, 0, len(hits))
	for _, hit := range hits {
		duplicateIDs = append(duplicateIDs, hit.EventID.String())
		trackingIDs = append(trackingIDs, hit.TrackingID)
	}

	action := &models.EventAction{
		ID:            uuid.New(),
		Type:          enums.ActionDetectDuplicate,
		Status:        enums.ActionStatusAccepted,
		EventID:       event.ID,
		TransactionID: input.TransactionID,
		Content: types.JSONMap{
			"duplicates":      duplicateIDs,
			"trackingIds":     trackingIDs,
			"requestedAction": string(input.Type),
		},
		CreatedBy:         input.Actor.UserID,
		CreatedByRole:     input.Actor.Role,
		CreatedAtLocation: input.Actor.OfficeID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.appendCommitted(ctx, tx, event, action, state.Status, map[string]bool{"duplicateDetected": true})
	})
	if err != nil {
		return s.translateAppendErr(ctx, err, input)
	}

	s.metrics.IncRejected(string(input.Type), "duplicate_detected")
	s.logg.Info(ctx, "duplicate candidates found, action deferred")
	return s.result(ctx, action, true)
}

// commit appends the requested action, its task entry, deletes superseded
// drafts and emits the outbox row in one transaction.
func (s *service) commit(ctx context.Context, event *models.Event, state projection.CurrentState, input ActionInput) (*ActionResult, error) {
	if input.OriginalActionID != nil {
		if err := pendingOriginal(event, *input.OriginalActionID, input.Type); err != nil {
			return nil, err
		}
	}

	action := s.buildAction(event.ID, input, nil)
	post := projectWith(event, *action)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.appendCommitted(ctx, tx, event, action, post.Status, nil)
	})
	if err != nil {
		return s.translateAppendErr(ctx, err, input)
	}

	s.metrics.IncProcessed(string(input.Type), string(enums.ActionStatusAccepted))
	s.logg.Info(ctx, "action committed")
	return s.result(ctx, action, false)
}

func (s *service) buildAction(eventID uuid.UUID, input ActionInput, content types.JSONMap) *models.EventAction {
	return &models.EventAction{
		ID:                uuid.New(),
		Type:              input.Type,
		Status:            enums.ActionStatusAccepted,
		EventID:           eventID,
		TransactionID:     input.TransactionID,
		Data:              input.Declaration,
		Content:           content,
		Annotation:        input.Annotation,
		OriginalActionID:  input.OriginalActionID,
		CreatedBy:         input.Actor.UserID,
		CreatedByRole:     input.Actor.Role,
		CreatedAtLocation: input.Actor.OfficeID,
	}
}

// appendCommitted is the single write path: action row, task entry revision
// with the post-action status, superseded draft cleanup and the outbox emit.
func (s *service) appendCommitted(ctx context.Context, tx *gorm.DB, event *models.Event, action *models.EventAction, postStatus enums.EventStatus, flags map[string]bool) error {
	if err := s.repo.AppendTx(tx, action); err != nil {
		return err
	}
	entry := &models.TaskEntry{
		ID:           uuid.New(),
		EventID:      event.ID,
		Status:       postStatus,
		Extension:    enums.TaskExtensionStatusUpdate,
		ActorID:      action.CreatedBy,
		LastModified: s.now(),
	}
	if err := s.tasks.Append(tx, entry); err != nil {
		return err
	}
	if err := s.draftsRepo.DeleteForActionTx(tx, event.ID, action.Type); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventActionCommitted,
		AggregateType: enums.AggregateRecord,
		AggregateID:   event.ID,
		Actor: &outbox.ActorRef{
			UserID:   action.CreatedBy,
			Role:     action.CreatedByRole,
			OfficeID: action.CreatedAtLocation,
		},
		Data: payloads.ActionCommittedEvent{
			EventID:     event.ID,
			Kind:        event.Kind,
			TrackingID:  event.TrackingID,
			ActionID:    action.ID,
			ActionType:  action.Type,
			Status:      postStatus,
			Declaration: projectionAfter(event, action),
			Flags:       flags,
		},
		Version: 1,
	})
}

// pendingOriginal checks that a follow-up references a Requested action of
// the same type on this record before it may resolve it.
func pendingOriginal(event *models.Event, id uuid.UUID, actionType enums.ActionType) error {
	for _, action := range event.Actions {
		if action.ID != id {
			continue
		}
		if action.Status != enums.ActionStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "referenced action is not pending confirmation")
		}
		if action.Type != actionType {
			return pkgerrors.New(pkgerrors.CodeValidation, "follow-up type does not match the pending action")
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "pending action not found on this record")
}

func projectionAfter(event *models.Event, action *models.EventAction) types.Declaration {
	return projectWith(event, *action).Declaration
}

// projectWith folds the candidate action after every persisted one. The
// candidate has no DB-assigned seq yet, so it is placed past the current max
// to keep the fold order right.
func projectWith(event *models.Event, action models.EventAction) projection.CurrentState {
	var maxSeq int64
	for _, existing := range event.Actions {
		if existing.Seq > maxSeq {
			maxSeq = existing.Seq
		}
	}
	action.Seq = maxSeq + 1
	tail := make([]models.EventAction, 0, len(event.Actions)+1)
	tail = append(tail, event.Actions...)
	tail = append(tail, action)
	return projection.Project(tail, nil)
}

// translateAppendErr resolves a unique-violation race on transaction_id into
// the idempotent replay the retrying caller expects.
func (s *service) translateAppendErr(ctx context.Context, err error, input ActionInput) (*ActionResult, error) {
	if !db.IsUniqueViolation(err, "ux_event_actions_transaction_id") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending action")
	}
	prior, lookupErr := s.repo.FindActionByTransactionID(ctx, input.TransactionID)
	if lookupErr != nil || prior == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "append raced with a concurrent request")
	}
	return s.replayResult(ctx, prior, input)
}

func (s *service) result(ctx context.Context, action *models.EventAction, deduplicated bool) (*ActionResult, error) {
	view, err := s.Get(ctx, action.EventID, GetOptions{})
	if err != nil {
		return nil, err
	}
	return &ActionResult{Action: *action, Deduplicated: deduplicated, Event: *view}, nil
}

func (s *service) resultByTransaction(ctx context.Context, transactionID string) (*ActionResult, error) {
	action, err := s.repo.FindActionByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transaction lookup")
	}
	if action == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "committed action not found")
	}
	return s.result(ctx, action, false)
}

// Get returns the record with its projected state, current assignee and,
// when requested, the caller's drafts and the full task history.
func (s *service) Get(ctx context.Context, eventID uuid.UUID, opts GetOptions) (*EventView, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var draftList []models.EventDraft
	if opts.IncludeDrafts && opts.Author != uuid.Nil {
		draftList, err = s.draftsRepo.ListForAuthor(ctx, eventID, opts.Author)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading drafts")
		}
	}

	assignee, err := s.assignments.Current(ctx, eventID)
	if err != nil {
		return nil, err
	}

	view := &EventView{
		Event:    *event,
		State:    projection.Project(event.Actions, draftList),
		Assignee: assignee,
		Drafts:   draftList,
	}
	if opts.IncludeHistory {
		history, err := s.tasks.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading task history")
		}
		view.TaskHistory = history
	}
	return view, nil
}

// List returns a cursor page of records with their projected states. The
// status filter applies to the projected status, so it cannot run in SQL;
// the scan keeps advancing the cursor until the page fills or the log is
// exhausted, and has-more is decided on the filtered results.
func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EventPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	items := make([]EventSummary, 0, limit)
	cursor := params.Cursor
	hasMore := false

scan:
	for {
		rows, err := s.repo.List(ctx, pagination.Params{Limit: limit, Cursor: cursor}, filters)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing records")
		}
		scannedMore := len(rows) > limit
		if scannedMore {
			rows = rows[:limit]
		}

		for _, event := range rows {
			state := projection.Project(event.Actions, nil)
			if filters.Status != nil && state.Status != *filters.Status {
				continue
			}
			if len(items) == limit {
				hasMore = true
				break scan
			}
			items = append(items, EventSummary{Event: event, State: state})
		}

		if !scannedMore {
			break
		}
		last := rows[len(rows)-1]
		cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	page := &EventPage{Items: items}
	if hasMore && len(items) > 0 {
		last := items[len(items)-1].Event
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}
