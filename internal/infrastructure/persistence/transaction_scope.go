package persistence

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/wims/backend/internal/application/inventory"
	apptrade "github.com/wims/backend/internal/application/trade"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// txRunner opens a database transaction together with a scoped lock set.
// Leases are released after commit or rollback, in reverse order.
type txRunner struct {
	db          *gorm.DB
	locker      shared.ResourceLocker
	lockTimeout time.Duration
}

func (r txRunner) run(ctx context.Context, fn func(tx *gorm.DB, locks *appinv.ScopedLockSet) error) error {
	locks := appinv.NewScopedLockSet(r.locker)
	defer locks.ReleaseAll(context.WithoutCancel(ctx))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.setLockTimeout(tx); err != nil {
			return err
		}
		return fn(tx, locks)
	})
	return translateError(err)
}

// setLockTimeout bounds row lock waits for the current transaction only
func (r txRunner) setLockTimeout(tx *gorm.DB) error {
	if r.lockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	return nil
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// On postgres every scope sets lock_timeout so blocked row locks fail with
// a concurrency conflict instead of waiting forever.
type GormTransactionScope struct {
	runner txRunner
}

// NewGormTransactionScope creates a new GormTransactionScope. locker may be nil
// when row locks alone are wanted.
func NewGormTransactionScope(db *gorm.DB, locker shared.ResourceLocker, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{runner: txRunner{db: db, locker: locker, lockTimeout: lockTimeout}}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.runner.run(ctx, func(tx *gorm.DB, locks *appinv.ScopedLockSet) error {
		return fn(&gormTransactionalRepositories{tx: tx, locks: locks})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx    *gorm.DB
	locks *appinv.ScopedLockSet
}

// PlacementRepo returns the placement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PlacementRepo() inventory.PlacementRepository {
	return NewGormPlacementRepository(r.tx)
}

// TransactionRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() inventory.TransactionRepository {
	return NewGormStockTransactionRepository(r.tx)
}

// AuditRepo returns the audit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() inventory.AuditRepository {
	return NewGormStockAuditRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Locks returns the lock set released when the transaction ends.
func (r *gormTransactionalRepositories) Locks() appinv.LockSet {
	return r.locks
}

// GormOrderTransactionScope implements OrderTransactionScope using GORM transactions
type GormOrderTransactionScope struct {
	runner txRunner
}

// NewGormOrderTransactionScope creates a new GormOrderTransactionScope
func NewGormOrderTransactionScope(db *gorm.DB, locker shared.ResourceLocker, lockTimeout time.Duration) *GormOrderTransactionScope {
	return &GormOrderTransactionScope{runner: txRunner{db: db, locker: locker, lockTimeout: lockTimeout}}
}

// Execute runs fn in one transaction spanning the ledger and the order tables
func (s *GormOrderTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.OrderRepositories) error) error {
	return s.runner.run(ctx, func(tx *gorm.DB, locks *appinv.ScopedLockSet) error {
		return fn(&gormOrderRepositories{
			gormTransactionalRepositories: gormTransactionalRepositories{tx: tx, locks: locks},
		})
	})
}

type gormOrderRepositories struct {
	gormTransactionalRepositories
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormOrderRepositories) OrderRepo() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// POSRepo returns the POS repository scoped to the current transaction.
func (r *gormOrderRepositories) POSRepo() trade.POSTransactionRepository {
	return NewGormPOSTransactionRepository(r.tx)
}

var (
	_ appinv.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ apptrade.OrderTransactionScope   = (*GormOrderTransactionScope)(nil)
	_ apptrade.OrderRepositories       = (*gormOrderRepositories)(nil)
)
