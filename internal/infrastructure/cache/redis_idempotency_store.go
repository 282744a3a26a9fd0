package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wims/backend/internal/domain/shared"
)

// DefaultIdempotencyKeyPrefix namespaces request keys in Redis
const DefaultIdempotencyKeyPrefix = "wims:idempotency:"

// RedisIdempotencyStore keeps claims in Redis so every instance of the
// service rejects the same replayed key. Each claim stores the instant it
// was taken and expires with its TTL.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: keyPrefix}
}

func (s *RedisIdempotencyStore) key(k string) string { return s.prefix + k }

// Claim takes key with SET NX. It reports false when a live claim exists.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimedAt := time.Now().UTC().Format(time.RFC3339Nano)
	ok, err := s.client.SetNX(ctx, s.key(key), claimedAt, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) IsHeld(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check idempotency key %q: %w", key, err)
	}
	return n == 1, nil
}

// Forget releases key so a failed request can be retried with it
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("forget idempotency key %q: %w", key, err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
