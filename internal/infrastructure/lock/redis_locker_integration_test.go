//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/testutil"
)

func TestRedisLocker_AcquireRelease(t *testing.T) {
	client := testutil.NewRedisClient(t)
	locker := NewRedisLocker(client, RedisLockerConfig{
		TTL:         5 * time.Second,
		WaitTimeout: 100 * time.Millisecond,
	})
	ctx := context.Background()
	key := shared.PlacementKey(uuid.New())

	lease, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client := testutil.NewRedisClient(t)
	locker := NewRedisLocker(client, RedisLockerConfig{TTL: 50 * time.Millisecond})
	ctx := context.Background()
	key := shared.ProductKey(uuid.New())

	stale, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	// let the first lease expire and hand the key to another holder
	time.Sleep(100 * time.Millisecond)
	current, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	exists, err := client.Exists(ctx, "wims:lock:"+key.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	require.NoError(t, current.Release(ctx))
}
