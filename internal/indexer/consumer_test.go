package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type stubSearchRepo struct {
	rows []models.EventSearch
	err  error
}

func (s *stubSearchRepo) Upsert(_ context.Context, row *models.EventSearch) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, *row)
	return nil
}

func (s *stubSearchRepo) Delete(context.Context, uuid.UUID) error {
	return nil
}

type stubIdempotency struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
}

func (s *stubIdempotency) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if s.seen == nil {
		s.seen = map[uuid.UUID]bool{}
	}
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubIdempotency) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.seen, eventID)
	return nil
}

func newTestConsumer(repo Repository, idem idempotencyManager) *Consumer {
	return &Consumer{
		repo:        repo,
		idempotency: idem,
		logg:        logger.NewNop(),
		now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func committedMessage(t *testing.T, outboxID uuid.UUID, committed payloads.ActionCommittedEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(committed)
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    outboxID.String(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:   "m-" + outboxID.String(),
		Data: envelope,
		Attributes: map[string]string{
			"event_type": string(enums.EventActionCommitted),
		},
	}
}

func TestProcessIndexesCommittedAction(t *testing.T) {
	repo := &stubSearchRepo{}
	consumer := newTestConsumer(repo, &stubIdempotency{})

	recordID := uuid.New()
	msg := committedMessage(t, uuid.New(), payloads.ActionCommittedEvent{
		EventID:    recordID,
		Kind:       enums.EventKindBirth,
		TrackingID: "BINDEX1",
		ActionType: enums.ActionValidate,
		Status:     enums.EventStatusValidated,
		Declaration: types.Declaration{
			"firstNames":   "Jane",
			"familyName":   "Mwangi",
			"dateOfBirth":  "2026-01-15",
			"gender":       "female",
			"placeOfEvent": "Nairobi",
		},
	})

	require.True(t, consumer.process(context.Background(), msg))
	require.Len(t, repo.rows, 1)

	row := repo.rows[0]
	assert.Equal(t, recordID, row.EventID)
	assert.Equal(t, enums.EventStatusValidated, row.Status)
	assert.Equal(t, "Jane", row.FirstNames)
	assert.Equal(t, "Mwangi", row.FamilyName)
	assert.Equal(t, "2026-01-15", row.DateOfBirth)
}

func TestProcessSkipsDuplicateDelivery(t *testing.T) {
	repo := &stubSearchRepo{}
	consumer := newTestConsumer(repo, &stubIdempotency{})

	outboxID := uuid.New()
	msg := committedMessage(t, outboxID, payloads.ActionCommittedEvent{
		EventID:     uuid.New(),
		Kind:        enums.EventKindBirth,
		TrackingID:  "BINDEX2",
		Status:      enums.EventStatusDeclared,
		Declaration: types.Declaration{"firstNames": "Jane"},
	})

	require.True(t, consumer.process(context.Background(), msg))
	require.True(t, consumer.process(context.Background(), msg))
	assert.Len(t, repo.rows, 1)
}

func TestProcessNacksAndRollsBackMarkerOnUpsertFailure(t *testing.T) {
	repo := &stubSearchRepo{err: errors.New("db down")}
	idem := &stubIdempotency{}
	consumer := newTestConsumer(repo, idem)

	outboxID := uuid.New()
	msg := committedMessage(t, outboxID, payloads.ActionCommittedEvent{
		EventID:     uuid.New(),
		Kind:        enums.EventKindBirth,
		TrackingID:  "BINDEX3",
		Status:      enums.EventStatusDeclared,
		Declaration: types.Declaration{"firstNames": "Jane"},
	})

	require.False(t, consumer.process(context.Background(), msg))
	require.Len(t, idem.deleted, 1)
	assert.Equal(t, outboxID, idem.deleted[0])

	// A clean retry after the dependency recovers succeeds.
	repo.err = nil
	require.True(t, consumer.process(context.Background(), msg))
	assert.Len(t, repo.rows, 1)
}

func TestProcessAcksUnrelatedEventTypes(t *testing.T) {
	repo := &stubSearchRepo{}
	consumer := newTestConsumer(repo, &stubIdempotency{})

	msg := &pubsub.Message{
		ID:         "m-unrelated",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventRecordUnassigned)},
	}
	require.True(t, consumer.process(context.Background(), msg))
	assert.Empty(t, repo.rows)
}
