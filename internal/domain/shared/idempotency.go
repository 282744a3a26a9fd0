package shared

import (
	"context"
	"time"
)

// IdempotencyStore holds client-supplied request keys. A key is claimed
// before the guarded work starts; while the claim is live a replay is
// refused. Callers Forget the key when the work fails so the client can retry.
type IdempotencyStore interface {
	// Claim takes key for ttl. It reports false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsHeld(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls claiming of order creation keys
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: 24 * time.Hour}
}
