package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyKey(t *testing.T) {
	assert.Equal(t, "idempotency:employee:abc-123", idempotencyKey("abc-123"))
}

func TestNewIdempotencyStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, defaultIdempotencyTTL, NewIdempotencyStore(nil, 0).ttl)
	assert.Equal(t, time.Minute, NewIdempotencyStore(nil, time.Minute).ttl)
}

func TestIdempotencyStore_ReserveThenComplete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	id, reserved, err := store.Reserve(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, id)
	assert.Equal(t, pendingTTL, mr.TTL(idempotencyKey("k1")))

	_, _, err = store.Reserve(ctx, "k1")
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)

	require.NoError(t, store.Complete(ctx, "k1", "emp-1"))
	assert.Equal(t, time.Hour, mr.TTL(idempotencyKey("k1")))

	id, reserved, err = store.Reserve(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "emp-1", id)
}

func TestIdempotencyStore_ConcurrentReserveHasOneWinner(t *testing.T) {
	store, _ := newTestStore(t)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		inFlight int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, reserved, err := store.Reserve(context.Background(), "same")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case reserved:
				winners++
			case err != nil:
				inFlight++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, callers-1, inFlight)
}

func TestIdempotencyStore_ReleaseFreesPendingKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, reserved, err := store.Reserve(ctx, "k1")
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, store.Release(ctx, "k1"))
	assert.False(t, mr.Exists(idempotencyKey("k1")))

	_, reserved, err = store.Reserve(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStore_ReleaseKeepsCompletedKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Complete(ctx, "k1", "emp-1"))
	require.NoError(t, store.Release(ctx, "k1"))

	got, err := mr.Get(idempotencyKey("k1"))
	require.NoError(t, err)
	assert.Equal(t, "emp-1", got)
}

func TestIdempotencyStore_AbandonedReservationExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "k1")
	require.NoError(t, err)

	mr.FastForward(pendingTTL + time.Second)

	_, reserved, err := store.Reserve(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStore_UnreachableRedis(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, _, err := store.Reserve(context.Background(), "k1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRequestInFlight)
}
