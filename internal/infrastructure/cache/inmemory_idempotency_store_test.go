package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		isNew, err := store.Claim(ctx, "order:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("rejects a replay", func(t *testing.T) {
		isNew, err := store.Claim(ctx, "order:key-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.Claim(ctx, "order:key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("claims again after expiry", func(t *testing.T) {
		clock := time.Now()
		store.now = func() time.Time { return clock }
		defer func() { store.now = time.Now }()

		_, err := store.Claim(ctx, "order:key-3", time.Minute)
		require.NoError(t, err)

		clock = clock.Add(time.Minute)
		held, err := store.IsHeld(ctx, "order:key-3")
		require.NoError(t, err)
		assert.False(t, held, "a claim ends exactly at its expiry")

		isNew, err := store.Claim(ctx, "order:key-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Claim(ctx, "order:k", time.Hour)
	require.NoError(t, err)

	held, err := store.IsHeld(ctx, "order:k")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, store.Forget(ctx, "order:k"))
	held, err = store.IsHeld(ctx, "order:k")
	require.NoError(t, err)
	assert.False(t, held)

	isNew, err := store.Claim(ctx, "order:k", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := newInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()

	_, err := store.Claim(context.Background(), "short", time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	unreachable := RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(unreachable, WithLogger(zap.NewNop()))
		store, client, err := f.CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.Nil(t, client)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false))
		_, _, err := f.CreateStore(context.Background())
		assert.Error(t, err)
	})
}
