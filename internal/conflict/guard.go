// Package conflict implements the per-(record, action type) advisory lock
// that keeps two concurrent requests from racing to append contradictory
// actions. Other action types on the same record proceed concurrently.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/civreg-backend/pkg/config"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
)

const defaultLockTTL = 30 * time.Second

// redisStore defines the operations used by the guard.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(parts ...string) string
}

// Guard hands out short-lived advisory locks backed by Redis SETNX. The TTL
// bounds how long a crashed request can block the pair.
type Guard struct {
	store redisStore
	ttl   time.Duration
}

// Lease is one held lock; release is owner-checked so an expired lease never
// frees a lock re-acquired by another request.
type Lease struct {
	guard *Guard
	key   string
	owner string
}

// NewGuard builds the conflict guard from configuration.
func NewGuard(store redisStore, cfg config.ConflictGuardConfig) (*Guard, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Acquire claims the (recordID, actionType) pair. A busy pair surfaces as a
// retryable CONFLICT for the caller to back off on.
func (g *Guard) Acquire(ctx context.Context, recordID uuid.UUID, actionType enums.ActionType) (*Lease, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if !actionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid action type %q", actionType))
	}

	key := g.store.LockKey("record", recordID.String(), string(actionType))
	owner := uuid.NewString()

	ok, err := g.store.SetNX(ctx, key, owner, g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring action lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("a %s action is already in flight for this record", actionType))
	}

	return &Lease{guard: g, key: key, owner: owner}, nil
}

// Release frees the lease only if this request still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.owner == "" {
		return nil
	}
	value, err := l.guard.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.guard.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
