package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed create can hold its key.
	pendingTTL = time.Minute
	// pendingMarker is stored until the create completes. Employee ids are
	// UUIDs and never collide with it.
	pendingMarker = "pending"
)

// releaseScript deletes the key only while it still holds the pending marker,
// so a late release never drops a completed binding.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore maps Idempotency-Key headers to the employee a create
// request produced. Completed keys expire after the configured TTL.
// Key format: idempotency:employee:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SET NX. When the key is taken it reports the bound
// employee id, or domain.ErrRequestInFlight while the owner is still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	k := idempotencyKey(key)

	// Two attempts cover a claim that expires between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}

		value, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if value == pendingMarker {
			return "", false, domain.ErrRequestInFlight
		}
		return value, false, nil
	}
	return "", false, domain.ErrRequestInFlight
}

// Complete binds key to employeeID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key, employeeID string) error {
	if err := s.client.Set(ctx, idempotencyKey(key), employeeID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a pending reservation. Completed keys are left alone.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{idempotencyKey(key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return "idempotency:employee:" + key
}
