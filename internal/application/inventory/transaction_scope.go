package inventory

import (
	"context"

	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	// Locks taken through Locks() are released after commit or rollback.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// LockSet acquires exclusive resource locks that stay held until the
// enclosing transaction scope ends. Locking a key the scope already holds is a no-op.
type LockSet interface {
	Lock(ctx context.Context, key shared.LockKey) error
}

// TransactionalRepositories provides access to all ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Lock order: placements before products, several placements in ascending id order.
type TransactionalRepositories interface {
	// PlacementRepo returns the placement repository scoped to the current transaction
	PlacementRepo() inventory.PlacementRepository
	// TransactionRepo returns the append-only ledger repository scoped to the current transaction
	TransactionRepo() inventory.TransactionRepository
	// AuditRepo returns the audit snapshot repository scoped to the current transaction
	AuditRepo() inventory.AuditRepository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// Locks returns the scope's lock set
	Locks() LockSet
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Locks are taken from the given ResourceLocker and released when Execute returns.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	placementRepo   inventory.PlacementRepository
	transactionRepo inventory.TransactionRepository
	auditRepo       inventory.AuditRepository
	productRepo     catalog.ProductRepository
	locker          shared.ResourceLocker
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	placementRepo inventory.PlacementRepository,
	transactionRepo inventory.TransactionRepository,
	auditRepo inventory.AuditRepository,
	productRepo catalog.ProductRepository,
	locker shared.ResourceLocker,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		placementRepo:   placementRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		productRepo:     productRepo,
		locker:          locker,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	locks := NewScopedLockSet(s.locker)
	defer locks.ReleaseAll(context.WithoutCancel(ctx))
	return fn(&noOpRepositories{scope: s, locks: locks})
}

type noOpRepositories struct {
	scope *NoOpTransactionScope
	locks *ScopedLockSet
}

func (r *noOpRepositories) PlacementRepo() inventory.PlacementRepository {
	return r.scope.placementRepo
}

func (r *noOpRepositories) TransactionRepo() inventory.TransactionRepository {
	return r.scope.transactionRepo
}

func (r *noOpRepositories) AuditRepo() inventory.AuditRepository {
	return r.scope.auditRepo
}

func (r *noOpRepositories) ProductRepo() catalog.ProductRepository {
	return r.scope.productRepo
}

func (r *noOpRepositories) Locks() LockSet {
	return r.locks
}

// ScopedLockSet collects leases from a ResourceLocker so they can be released
// together once the owning scope finishes.
type ScopedLockSet struct {
	locker shared.ResourceLocker
	held   map[shared.LockKey]shared.Lease
	order  []shared.LockKey
}

// NewScopedLockSet creates an empty lock set. A nil locker makes Lock a no-op.
func NewScopedLockSet(locker shared.ResourceLocker) *ScopedLockSet {
	return &ScopedLockSet{
		locker: locker,
		held:   make(map[shared.LockKey]shared.Lease),
	}
}

// Lock acquires key unless the set already holds it
func (s *ScopedLockSet) Lock(ctx context.Context, key shared.LockKey) error {
	if s.locker == nil {
		return nil
	}
	if _, ok := s.held[key]; ok {
		return nil
	}
	lease, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	s.held[key] = lease
	s.order = append(s.order, key)
	return nil
}

// ReleaseAll releases every held lease in reverse acquisition order
func (s *ScopedLockSet) ReleaseAll(ctx context.Context) {
	for i := len(s.order) - 1; i >= 0; i-- {
		key := s.order[i]
		if lease, ok := s.held[key]; ok {
			_ = lease.Release(ctx)
			delete(s.held, key)
		}
	}
	s.order = nil
}

// Ensure NoOpTransactionScope implements TransactionScope
var _ TransactionScope = (*NoOpTransactionScope)(nil)

// Ensure ScopedLockSet implements LockSet
var _ LockSet = (*ScopedLockSet)(nil)
