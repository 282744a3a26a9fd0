package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appinv "github.com/wims/backend/internal/application/inventory"
	apptrade "github.com/wims/backend/internal/application/trade"
	"github.com/wims/backend/internal/domain/partner"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
	"github.com/wims/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sqliteLedger struct {
	db         *gorm.DB
	seed       catalogSeed
	service    *appinv.LedgerService
	projection *appinv.ProjectionService
	orders     *apptrade.OrderService
	customer   *partner.Customer
}

func newSQLiteLedger(t *testing.T) *sqliteLedger {
	t.Helper()
	return newLedgerHarness(t, newSQLiteDB(t), lock.NewKeyedMutex(2*time.Second), 0)
}

// newLedgerHarness wires the ledger, projection and order services over db
func newLedgerHarness(t *testing.T, db *gorm.DB, locker shared.ResourceLocker, lockTimeout time.Duration) *sqliteLedger {
	t.Helper()
	seed := seedCatalog(t, db, "SKU-1", "4006381333931")

	scope := NewGormTransactionScope(db, locker, lockTimeout)
	orderScope := NewGormOrderTransactionScope(db, locker, lockTimeout)

	products := NewGormProductRepository(db)
	placements := NewGormPlacementRepository(db)
	refs := appinv.NewReferenceChecker(products, NewGormWarehouseRepository(db), NewGormLocationRepository(db))
	ledger := appinv.NewLedger(appinv.NewQuantityProjection())

	customer, err := partner.NewCustomer("Grace Hopper", "grace@example.com", "")
	require.NoError(t, err)
	customers := NewGormCustomerRepository(db)
	require.NoError(t, customers.Save(context.Background(), customer))

	return &sqliteLedger{
		db:         db,
		seed:       seed,
		service:    appinv.NewLedgerService(placements, NewGormStockTransactionRepository(db), refs, scope, ledger, zap.NewNop()),
		projection: appinv.NewProjectionService(products, placements, scope, zap.NewNop()),
		orders:     apptrade.NewOrderService(NewGormOrderRepository(db), customers, refs, ledger, orderScope, zap.NewNop()),
		customer:   customer,
	}
}

func (l *sqliteLedger) createPlacement(t *testing.T, batch string, qty int64) *appinv.PlacementResponse {
	t.Helper()
	resp, err := l.service.CreatePlacement(context.Background(), appinv.CreatePlacementRequest{
		ProductID:   l.seed.product.ID,
		WarehouseID: l.seed.warehouse.ID,
		LocationID:  l.seed.location.ID,
		BatchNumber: batch,
		Quantity:    qty,
	})
	require.NoError(t, err)
	return resp
}

func (l *sqliteLedger) productQuantity(t *testing.T) int64 {
	t.Helper()
	avail, err := l.projection.Available(context.Background(), l.seed.product.ID)
	require.NoError(t, err)
	return avail.Quantity
}

func TestSQLiteLedger_ConcurrentReservesNeverOversell(t *testing.T) {
	l := newSQLiteLedger(t)
	placement := l.createPlacement(t, "B1", 10)

	const workers = 24
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.service.Reserve(context.Background(), placement.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, insufficient)

	got, err := l.service.GetPlacement(context.Background(), placement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ReservedQuantity)
	assert.Equal(t, int64(10), got.Quantity)
	assert.Equal(t, int64(10), l.productQuantity(t), "reservations never move the product aggregate")
}

func TestSQLiteLedger_AdjustKeepsLedgerAndProjectionInStep(t *testing.T) {
	l := newSQLiteLedger(t)
	ctx := context.Background()
	placement := l.createPlacement(t, "B1", 20)

	_, err := l.service.RecordTransaction(ctx, appinv.RecordTransactionRequest{
		PlacementID: placement.ID, TransactionType: "OUTBOUND", Quantity: 7,
	})
	require.NoError(t, err)

	_, err = l.service.Reserve(ctx, placement.ID, 10)
	require.NoError(t, err)

	// reserved stock cannot leave the shelf
	_, err = l.service.RecordTransaction(ctx, appinv.RecordTransactionRequest{
		PlacementID: placement.ID, TransactionType: "OUTBOUND", Quantity: 4,
	})
	var insufficient *shared.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.Available)

	balance, err := l.service.LedgerBalance(ctx, placement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(13), balance.LedgerSum)
	assert.Equal(t, int64(13), balance.Quantity)
	assert.True(t, balance.Reconciles)
	assert.Equal(t, int64(13), l.productQuantity(t))

	result, err := l.projection.Reconcile(ctx, l.seed.product.ID, false)
	require.NoError(t, err)
	assert.Zero(t, result.Drift)
}

func TestSQLiteLedger_DeleteSettlesOnce(t *testing.T) {
	l := newSQLiteLedger(t)
	ctx := context.Background()
	keep := l.createPlacement(t, "B1", 5)
	gone := l.createPlacement(t, "B2", 9)
	require.Equal(t, int64(14), l.productQuantity(t))

	require.NoError(t, l.service.DeletePlacement(ctx, gone.ID))
	assert.ErrorIs(t, l.service.DeletePlacement(ctx, gone.ID), shared.ErrNotFound)
	assert.Equal(t, int64(5), l.productQuantity(t))

	_, err := l.service.Reserve(ctx, keep.ID, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, l.service.DeletePlacement(ctx, keep.ID), shared.ErrInvalidState)
}

func TestSQLiteLedger_OrderLifecycle(t *testing.T) {
	l := newSQLiteLedger(t)
	ctx := context.Background()
	placement := l.createPlacement(t, "B1", 8)

	order, err := l.orders.CreateOrder(ctx, apptrade.CreateOrderRequest{
		CustomerID: l.customer.ID,
		Items: []apptrade.CreateOrderItemInput{{
			ProductID:   l.seed.product.ID,
			WarehouseID: l.seed.warehouse.ID,
			LocationID:  l.seed.location.ID,
			Quantity:    3,
		}},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusReserved), order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, placement.ID, *order.Items[0].PlacementID)
	assert.NotNil(t, order.Items[0].POSTransactionID)

	_, err = l.orders.CreateOrder(ctx, apptrade.CreateOrderRequest{
		CustomerID: l.customer.ID,
		Items: []apptrade.CreateOrderItemInput{{
			ProductID:   l.seed.product.ID,
			WarehouseID: l.seed.warehouse.ID,
			LocationID:  l.seed.location.ID,
			Quantity:    6,
		}},
	}, "")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	var orders int64
	require.NoError(t, l.db.Table("orders").Count(&orders).Error)
	assert.Equal(t, int64(1), orders, "a rejected order leaves nothing behind")

	picked, err := l.orders.TransitionOrder(ctx, order.ID, apptrade.UpdateOrderStatusRequest{Status: "Picked"})
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusPicked), picked.Status)

	got, err := l.service.GetPlacement(ctx, placement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
	assert.Zero(t, got.ReservedQuantity)
	assert.Equal(t, int64(5), l.productQuantity(t))

	cancelled, err := l.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusCancelled), cancelled.Status)
	assert.Equal(t, int64(8), l.productQuantity(t), "cancelling after pick restocks the placement")
}
