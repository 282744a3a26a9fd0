package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wims/backend/internal/domain/shared"
)

// IdempotencyStoreFactory picks the idempotency backend at startup: Redis
// when it answers, otherwise the in-memory store if fallback is allowed.
type IdempotencyStoreFactory struct {
	redis    RedisConfig
	prefix   string
	log      *zap.Logger
	fallback bool
}

type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.log = logger }
}

// WithKeyPrefix sets the Redis key namespace
func WithKeyPrefix(prefix string) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.prefix = prefix }
}

// WithInMemoryFallback allows a per-process store when Redis is down.
// Enabled unless set otherwise.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.fallback = allow }
}

func NewIdempotencyStoreFactory(cfg RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redis:    cfg,
		prefix:   DefaultIdempotencyKeyPrefix,
		log:      zap.NewNop(),
		fallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the chosen store and, for the Redis backend, its
// client so the lock backend can share it. The client is nil on fallback.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, *redis.Client, error) {
	client, err := NewRedisClient(ctx, f.redis)
	switch {
	case err == nil:
		f.log.Info("Idempotency keys stored in Redis", zap.String("addr", f.redis.Addr()))
		return NewRedisIdempotencyStore(client, f.prefix), client, nil
	case !f.fallback:
		return nil, nil, fmt.Errorf("idempotency store: %w", err)
	}

	f.log.Warn("Redis unavailable, idempotency keys kept in memory; replays are detected per instance only",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil, nil
}
