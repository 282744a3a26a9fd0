package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wims/backend/internal/domain/shared"
)

func TestKeyedMutex_ExclusivePerKey(t *testing.T) {
	m := NewKeyedMutex(time.Second)
	key := shared.PlacementKey(uuid.New())

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := m.Acquire(context.Background(), key)
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			require.NoError(t, lease.Release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, m.Held(), "slots are dropped once nobody references them")
}

func TestKeyedMutex_DistinctKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex(50 * time.Millisecond)
	ctx := context.Background()

	a, err := m.Acquire(ctx, shared.PlacementKey(uuid.New()))
	require.NoError(t, err)
	defer a.Release(ctx)

	b, err := m.Acquire(ctx, shared.ProductKey(uuid.New()))
	require.NoError(t, err)
	defer b.Release(ctx)

	assert.Equal(t, 2, m.Held())
}

func TestKeyedMutex_WaitTimeoutIsConflict(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)
	key := shared.ProductKey(uuid.New())
	ctx := context.Background()

	held, err := m.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	assert.True(t, shared.IsRetryable(err))

	require.NoError(t, held.Release(ctx))
	again, err := m.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex(time.Second)
	key := shared.OrderKey(uuid.New())

	held, err := m.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, key)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestKeyedMutex_DoubleReleaseIsNoop(t *testing.T) {
	m := NewKeyedMutex(time.Second)
	key := shared.PlacementKey(uuid.New())
	ctx := context.Background()

	lease, err := m.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))
	assert.Equal(t, 0, m.Held())
}

func TestNoopLocker(t *testing.T) {
	l := NewNoopLocker()
	key := shared.PlacementKey(uuid.New())

	a, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	b, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	assert.NoError(t, a.Release(context.Background()))
	assert.NoError(t, b.Release(context.Background()))
}
