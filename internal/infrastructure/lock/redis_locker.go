package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wims/backend/internal/domain/shared"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLockerConfig holds the distributed lock settings
type RedisLockerConfig struct {
	KeyPrefix   string
	TTL         time.Duration
	WaitTimeout time.Duration
	RetryDelay  time.Duration
}

// RedisLocker is a distributed lock built on SET NX PX. The TTL bounds how
// long a crashed holder can block others, so it must exceed the longest
// transaction.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisLockerConfig
}

// NewRedisLocker creates a RedisLocker
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "wims:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg}
}

// Acquire retries SET NX with a capped exponential back-off until the wait bound
func (l *RedisLocker) Acquire(ctx context.Context, key shared.LockKey) (shared.Lease, error) {
	name := l.cfg.KeyPrefix + key.String()
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.WaitTimeout)
	delay := l.cfg.RetryDelay

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLease{client: l.client, key: name, token: token}, nil
		}
		if time.Now().Add(delay).After(deadline) {
			return nil, conflict(key, fmt.Errorf("waited %s", l.cfg.WaitTimeout))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, conflict(key, ctx.Err())
		case <-timer.C:
		}
		if delay < 200*time.Millisecond {
			delay *= 2
		}
	}
}

type redisLease struct {
	once   sync.Once
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		err = releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
		if errors.Is(err, redis.Nil) {
			err = nil
		}
	})
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

var _ shared.ResourceLocker = (*RedisLocker)(nil)
