//go:build integration

package cache

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wims/backend/internal/testutil"
)

func TestRedisIdempotencyStore(t *testing.T) {
	client := testutil.NewRedisClient(t)
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	ok, err := store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim of a live key")

	held, err := store.IsHeld(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, held)

	ttl, err := client.TTL(ctx, DefaultIdempotencyKeyPrefix+"order-1").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	require.NoError(t, store.Forget(ctx, "order-1"))
	held, err = store.IsHeld(ctx, "order-1")
	require.NoError(t, err)
	assert.False(t, held)

	ok, err = store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "a forgotten key can be claimed again")
}

func TestRedisIdempotencyStore_ClaimExpires(t *testing.T) {
	store := NewRedisIdempotencyStore(testutil.NewRedisClient(t), "test:")
	ctx := context.Background()

	ok, err := store.Claim(ctx, "short", 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		held, err := store.IsHeld(ctx, "short")
		return err == nil && !held
	}, 2*time.Second, 20*time.Millisecond)
}

func TestIdempotencyStoreFactory_Redis(t *testing.T) {
	client := testutil.NewRedisClient(t)
	opts := client.Options()
	host, port, ok := splitAddr(opts.Addr)
	require.True(t, ok)

	f := NewIdempotencyStoreFactory(RedisConfig{Host: host, Port: port},
		WithLogger(zaptest.NewLogger(t)), WithInMemoryFallback(false), WithKeyPrefix("factory:"))
	store, shared, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, shared)
	defer store.Close()

	assert.IsType(t, &RedisIdempotencyStore{}, store)
	_, err = store.Claim(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	n, err := client.Exists(context.Background(), "factory:k").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func splitAddr(addr string) (string, int, bool) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(p)
	return host, port, err == nil
}
