package trade

import (
	"context"

	appinv "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
)

// OrderTransactionScope runs order workflows in one database transaction
// together with the stock ledger they reserve from.
type OrderTransactionScope interface {
	Execute(ctx context.Context, fn func(repos OrderRepositories) error) error
}

// OrderRepositories extends the ledger repositories with the order tables.
// All repositories share the same underlying transaction.
type OrderRepositories interface {
	appinv.TransactionalRepositories
	OrderRepo() trade.OrderRepository
	POSRepo() trade.POSTransactionRepository
}

// NoOpOrderTransactionScope runs without a real transaction. It is intended
// for tests; rollback relies on the service's explicit compensation.
type NoOpOrderTransactionScope struct {
	placementRepo   inventory.PlacementRepository
	transactionRepo inventory.TransactionRepository
	auditRepo       inventory.AuditRepository
	productRepo     catalog.ProductRepository
	orderRepo       trade.OrderRepository
	posRepo         trade.POSTransactionRepository
	locker          shared.ResourceLocker
}

// NewNoOpOrderTransactionScope creates a NoOpOrderTransactionScope
func NewNoOpOrderTransactionScope(
	placementRepo inventory.PlacementRepository,
	transactionRepo inventory.TransactionRepository,
	auditRepo inventory.AuditRepository,
	productRepo catalog.ProductRepository,
	orderRepo trade.OrderRepository,
	posRepo trade.POSTransactionRepository,
	locker shared.ResourceLocker,
) *NoOpOrderTransactionScope {
	return &NoOpOrderTransactionScope{
		placementRepo:   placementRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		productRepo:     productRepo,
		orderRepo:       orderRepo,
		posRepo:         posRepo,
		locker:          locker,
	}
}

// Execute runs fn, releasing every lock it took when it returns
func (s *NoOpOrderTransactionScope) Execute(ctx context.Context, fn func(repos OrderRepositories) error) error {
	locks := appinv.NewScopedLockSet(s.locker)
	defer locks.ReleaseAll(context.WithoutCancel(ctx))
	return fn(&noOpOrderRepositories{scope: s, locks: locks})
}

type noOpOrderRepositories struct {
	scope *NoOpOrderTransactionScope
	locks *appinv.ScopedLockSet
}

func (r *noOpOrderRepositories) PlacementRepo() inventory.PlacementRepository {
	return r.scope.placementRepo
}

func (r *noOpOrderRepositories) TransactionRepo() inventory.TransactionRepository {
	return r.scope.transactionRepo
}

func (r *noOpOrderRepositories) AuditRepo() inventory.AuditRepository {
	return r.scope.auditRepo
}

func (r *noOpOrderRepositories) ProductRepo() catalog.ProductRepository {
	return r.scope.productRepo
}

func (r *noOpOrderRepositories) OrderRepo() trade.OrderRepository {
	return r.scope.orderRepo
}

func (r *noOpOrderRepositories) POSRepo() trade.POSTransactionRepository {
	return r.scope.posRepo
}

func (r *noOpOrderRepositories) Locks() appinv.LockSet {
	return r.locks
}

var _ OrderTransactionScope = (*NoOpOrderTransactionScope)(nil)
