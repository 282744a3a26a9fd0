package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Lockable resource kinds
const (
	ResourcePlacement = "placement"
	ResourceProduct   = "product"
	ResourceOrder     = "order"
)

// LockKey identifies a single lockable resource
type LockKey struct {
	Resource string
	ID       uuid.UUID
}

// String returns the canonical "resource:id" form used by lock backends
func (k LockKey) String() string {
	return fmt.Sprintf("%s:%s", k.Resource, k.ID)
}

// PlacementKey returns the lock key for a stock placement
func PlacementKey(id uuid.UUID) LockKey {
	return LockKey{Resource: ResourcePlacement, ID: id}
}

// ProductKey returns the lock key for a product aggregate
func ProductKey(id uuid.UUID) LockKey {
	return LockKey{Resource: ResourceProduct, ID: id}
}

// OrderKey returns the lock key for an order
func OrderKey(id uuid.UUID) LockKey {
	return LockKey{Resource: ResourceOrder, ID: id}
}

// Lease is a held exclusive lock
type Lease interface {
	// Release gives the lock back. Releasing twice is a no-op.
	Release(ctx context.Context) error
}

// ResourceLocker grants exclusive access to a resource by id.
// Acquire blocks until the lock is held, the context is done, or the
// implementation's wait bound elapses; a timed-out wait returns an error
// matching ErrConcurrencyConflict.
type ResourceLocker interface {
	Acquire(ctx context.Context, key LockKey) (Lease, error)
}
