// Package indexer consumes committed-action events from Pub/Sub and folds
// them into the event_search read model the deduplication engine queries.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/internal/dedup"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/outbox/payloads"
)

// ConsumerName labels the idempotency markers this consumer writes.
const ConsumerName = "search-indexer"

// Repository writes the search read model.
type Repository interface {
	Upsert(ctx context.Context, row *models.EventSearch) error
	Delete(ctx context.Context, eventID uuid.UUID) error
}

type idempotencyManager interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer processes record action events from the record subscription.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	idempotency  idempotencyManager
	logg         *logger.Logger
	now          func() time.Time
}

func NewConsumer(repo Repository, subscription *pubsub.Subscriber, idempotency idempotencyManager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, errors.New("search repository is required")
	}
	if subscription == nil {
		return nil, errors.New("record subscription is required")
	}
	if idempotency == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  idempotency,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run processes messages until the context is canceled or the subscription
// errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Malformed messages
// are acked: redelivery cannot fix them and the DLQ on the publisher side
// already captured anything unresolvable.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventActionCommitted) {
		c.logg.Info(logCtx, "skipping unrelated event type")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal envelope", err)
		return true
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "envelope carries invalid event id", err)
		return true
	}

	alreadyProcessed, err := c.idempotency.CheckAndMarkProcessed(logCtx, ConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if alreadyProcessed {
		c.logg.Info(logCtx, "event already indexed, skipping")
		return true
	}

	var committed payloads.ActionCommittedEvent
	if err := json.Unmarshal(envelope.Data, &committed); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal action payload", err)
		return true
	}

	if err := c.index(logCtx, committed); err != nil {
		c.logg.Error(logCtx, "failed to index record", err)
		// Roll the marker back so redelivery gets a clean retry.
		if delErr := c.idempotency.Delete(logCtx, ConsumerName, eventID); delErr != nil {
			c.logg.Warn(logCtx, "failed to clear idempotency marker: "+delErr.Error())
		}
		return false
	}

	c.logg.Info(c.logg.WithRecordID(logCtx, committed.EventID.String()), "record indexed")
	return true
}

func (c *Consumer) index(ctx context.Context, committed payloads.ActionCommittedEvent) error {
	fields := dedup.Flatten(committed.Declaration)
	return c.repo.Upsert(ctx, &models.EventSearch{
		EventID:      committed.EventID,
		Kind:         committed.Kind,
		Status:       committed.Status,
		TrackingID:   committed.TrackingID,
		FirstNames:   fields[dedup.FieldFirstNames],
		FamilyName:   fields[dedup.FieldFamilyName],
		DateOfBirth:  fields[dedup.FieldDateOfBirth],
		Gender:       fields[dedup.FieldGender],
		PlaceOfEvent: fields[dedup.FieldPlaceOfEvent],
		UpdatedAt:    c.now(),
	})
}
