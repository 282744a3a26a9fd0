package trade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appinv "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/partner"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
	"github.com/wims/backend/internal/infrastructure/cache"
	"github.com/wims/backend/internal/infrastructure/lock"
	"github.com/wims/backend/internal/testutil/memstore"
	"go.uber.org/zap"
)

type orderFixture struct {
	placements   *memstore.PlacementRepo
	transactions *memstore.TransactionRepo
	products     *memstore.ProductRepo
	customers    *memstore.CustomerRepo
	orders       *memstore.OrderRepo
	pos          *memstore.POSRepo
	publisher    *memstore.RecordingPublisher

	ledgerSvc *appinv.LedgerService
	service   *OrderService
	locker    *recordingLocker

	customer  *partner.Customer
	widget    *catalog.Product
	gadget    *catalog.Product
	warehouse *catalog.Warehouse
	location  *catalog.WarehouseLocation
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()

	f := &orderFixture{
		placements:   memstore.NewPlacementRepo(),
		transactions: &memstore.TransactionRepo{},
		products:     memstore.NewProductRepo(),
		customers:    memstore.NewCustomerRepo(),
		orders:       memstore.NewOrderRepo(),
		pos:          &memstore.POSRepo{},
		publisher:    &memstore.RecordingPublisher{},
	}
	audits := &memstore.AuditRepo{}
	warehouses := memstore.NewWarehouseRepo()
	locations := memstore.NewLocationRepo()

	var err error
	f.customer, err = partner.NewCustomer("Ada Lovelace", "ada@example.com", "")
	require.NoError(t, err)
	f.widget, err = catalog.NewProduct("WID-1", "4006381333931", "Widget", catalog.UnitTypeSingle, decimal.NewFromFloat(2.50), decimal.Zero)
	require.NoError(t, err)
	f.gadget, err = catalog.NewProduct("GAD-1", "4006381333948", "Gadget", catalog.UnitTypeBox, decimal.NewFromFloat(10), decimal.Zero)
	require.NoError(t, err)
	f.warehouse, err = catalog.NewWarehouse("Main", "1 Dock Road")
	require.NoError(t, err)
	f.location, err = catalog.NewWarehouseLocation(f.warehouse.ID, "A-01", catalog.LocationRack, catalog.CapacityLarge, 1000)
	require.NoError(t, err)

	require.NoError(t, f.customers.Save(ctx, f.customer))
	require.NoError(t, f.products.Save(ctx, f.widget))
	require.NoError(t, f.products.Save(ctx, f.gadget))
	require.NoError(t, warehouses.Save(ctx, f.warehouse))
	require.NoError(t, locations.Save(ctx, f.location))

	f.locker = &recordingLocker{ResourceLocker: lock.NewKeyedMutex(2 * time.Second)}
	locker := f.locker
	refs := appinv.NewReferenceChecker(f.products, warehouses, locations)
	ledger := appinv.NewLedger(appinv.NewQuantityProjection())

	invScope := appinv.NewNoOpTransactionScope(f.placements, f.transactions, audits, f.products, locker)
	f.ledgerSvc = appinv.NewLedgerService(f.placements, f.transactions, refs, invScope, ledger, zap.NewNop())

	scope := NewNoOpOrderTransactionScope(f.placements, f.transactions, audits, f.products, f.orders, f.pos, locker)
	f.service = NewOrderService(f.orders, f.customers, refs, ledger, scope, zap.NewNop())
	f.service.SetEventPublisher(f.publisher)
	return f
}

func (f *orderFixture) stock(t *testing.T, product *catalog.Product, batch string, qty int64, expiry *time.Time) uuid.UUID {
	t.Helper()
	resp, err := f.ledgerSvc.CreatePlacement(context.Background(), appinv.CreatePlacementRequest{
		ProductID:   product.ID,
		WarehouseID: f.warehouse.ID,
		LocationID:  f.location.ID,
		BatchNumber: batch,
		Quantity:    qty,
		ExpiryDate:  expiry,
	})
	require.NoError(t, err)
	return resp.ID
}

// rekey moves a stored placement to a new id
func (f *orderFixture) rekey(t *testing.T, from, to uuid.UUID) {
	t.Helper()
	p, ok := f.placements.Get(from)
	require.True(t, ok)
	require.NoError(t, f.placements.Delete(context.Background(), from))
	p.ID = to
	require.NoError(t, f.placements.Save(context.Background(), &p))
}

// recordingLocker records granted keys and holds each grant for delay
type recordingLocker struct {
	shared.ResourceLocker
	delay time.Duration

	mu   sync.Mutex
	keys []shared.LockKey
}

func (l *recordingLocker) Acquire(ctx context.Context, key shared.LockKey) (shared.Lease, error) {
	lease, err := l.ResourceLocker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	time.Sleep(l.delay)
	return lease, nil
}

func (l *recordingLocker) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = nil
}

func (l *recordingLocker) placementKeys() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []uuid.UUID
	for _, k := range l.keys {
		if k.Resource == shared.ResourcePlacement {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// orderedProducts returns widget and gadget sorted by id
func (f *orderFixture) orderedProducts() (*catalog.Product, *catalog.Product) {
	if compareUUID(f.widget.ID, f.gadget.ID) < 0 {
		return f.widget, f.gadget
	}
	return f.gadget, f.widget
}

func (f *orderFixture) item(product *catalog.Product, qty int64) CreateOrderItemInput {
	return CreateOrderItemInput{
		ProductID:   product.ID,
		WarehouseID: f.warehouse.ID,
		LocationID:  f.location.ID,
		Quantity:    qty,
	}
}

func (f *orderFixture) reserved(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	p, ok := f.placements.Get(id)
	require.True(t, ok)
	return p.ReservedQuantity
}

func (f *orderFixture) create(t *testing.T, items ...CreateOrderItemInput) *OrderResponse {
	t.Helper()
	resp, err := f.service.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items:      items,
	}, "")
	require.NoError(t, err)
	return resp
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	widgetStock := f.stock(t, f.widget, "W1", 20, nil)
	gadgetStock := f.stock(t, f.gadget, "G1", 5, nil)
	ledgerEntries := len(f.transactions.All())

	resp := f.create(t, f.item(f.widget, 4), f.item(f.gadget, 2))

	assert.Equal(t, string(trade.OrderStatusReserved), resp.Status)
	assert.True(t, resp.POSProcessed)
	assert.NotNil(t, resp.ReservedAt)
	assert.Equal(t, trade.DefaultPOSTerminalID, resp.POSTerminalID)
	assert.True(t, decimal.NewFromInt(30).Equal(resp.TotalPrice), "4×2.50 + 2×10.00")
	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		assert.NotNil(t, item.PlacementID)
		assert.NotNil(t, item.POSTransactionID)
	}

	assert.Equal(t, int64(4), f.reserved(t, widgetStock))
	assert.Equal(t, int64(2), f.reserved(t, gadgetStock))
	assert.Len(t, f.transactions.All(), ledgerEntries, "reservations never write the ledger")
	assert.Equal(t, int64(20), f.products.Quantity(f.widget.ID))

	records := f.pos.All()
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, trade.POSTransactionVerified, r.Status)
		assert.Equal(t, resp.ID, r.OrderID)
	}

	assert.Len(t, f.publisher.OfType(trade.EventTypeOrderReserved), 1)
	assert.Len(t, f.publisher.OfType(inventory.EventTypeStockReserved), 2)

	got, err := f.service.GetOrder(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Status, got.Status)
}

func TestOrderService_CreateOrder_AllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	first, second := f.orderedProducts()
	firstStock := f.stock(t, first, "F1", 20, nil)
	f.stock(t, second, "S1", 3, nil)
	f.stock(t, second, "S2", 4, nil)

	_, err := f.service.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items:      []CreateOrderItemInput{f.item(second, 6), f.item(first, 5)},
	}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, second.ID, stockErr.ProductID)
	assert.Equal(t, int64(4), stockErr.Available, "largest single placement")
	assert.Equal(t, int64(6), stockErr.Requested)

	history := f.placements.History(firstStock)
	require.GreaterOrEqual(t, len(history), 2)
	assert.Equal(t, int64(5), history[len(history)-2].ReservedQuantity, "first item is reserved")
	assert.Equal(t, int64(0), history[len(history)-1].ReservedQuantity, "then released")
	assert.Zero(t, f.reserved(t, firstStock))
	assert.Zero(t, f.orders.Len())
	assert.Empty(t, f.pos.All())
	assert.Empty(t, f.publisher.OfType(inventory.EventTypeStockReserved))
	assert.Empty(t, f.publisher.OfType(inventory.EventTypeStockReleased))
}

// invertPlacementIDs gives the lower product the higher placement id
func invertPlacementIDs(t *testing.T, f *orderFixture) (low, high uuid.UUID) {
	t.Helper()
	first, second := f.orderedProducts()
	low = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high = uuid.MustParse("ffffffff-ffff-ffff-ffff-fffffffffffe")
	f.rekey(t, f.stock(t, first, "F1", 10, nil), high)
	f.rekey(t, f.stock(t, second, "S1", 10, nil), low)
	return low, high
}

func TestOrderService_CreateOrder_LocksPlacementsInIDOrder(t *testing.T) {
	f := newOrderFixture(t)
	low, high := invertPlacementIDs(t, f)
	first, second := f.orderedProducts()
	f.locker.reset()

	f.create(t, f.item(first, 1), f.item(second, 1))

	keys := f.locker.placementKeys()
	require.NotEmpty(t, keys)
	assert.Equal(t, low, keys[0])
	assert.Contains(t, keys, high)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, compareUUID(keys[i-1], keys[i]), 0, "placement locks are taken in ascending id order")
	}
	assert.Equal(t, int64(1), f.reserved(t, low))
	assert.Equal(t, int64(1), f.reserved(t, high))
}

func TestOrderService_CreateAndCancel_Concurrently(t *testing.T) {
	f := newOrderFixture(t)
	low, high := invertPlacementIDs(t, f)
	first, second := f.orderedProducts()
	placed := f.create(t, f.item(first, 1), f.item(second, 1))
	f.locker.delay = 100 * time.Millisecond

	var (
		wg        sync.WaitGroup
		createErr error
		cancelErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, createErr = f.service.CreateOrder(context.Background(), CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{f.item(first, 1), f.item(second, 1)},
		}, "")
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = f.service.CancelOrder(context.Background(), placed.ID)
	}()
	wg.Wait()

	require.NoError(t, createErr)
	require.NoError(t, cancelErr)
	assert.Equal(t, int64(1), f.reserved(t, low))
	assert.Equal(t, int64(1), f.reserved(t, high))
}

func TestOrderService_CreateOrder_CompensatesOnWriteFailure(t *testing.T) {
	f := newOrderFixture(t)
	widgetStock := f.stock(t, f.widget, "W1", 20, nil)
	f.pos.Fail = errors.New("disk full")

	_, err := f.service.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Items:      []CreateOrderItemInput{f.item(f.widget, 5)},
	}, "")
	require.Error(t, err)
	assert.Zero(t, f.reserved(t, widgetStock))
}

func TestOrderService_CreateOrder_FEFO(t *testing.T) {
	f := newOrderFixture(t)
	later := time.Now().AddDate(0, 6, 0)
	sooner := time.Now().AddDate(0, 1, 0)

	undated := f.stock(t, f.widget, "W0", 50, nil)
	lateBatch := f.stock(t, f.widget, "W-LATE", 50, &later)
	soonBatch := f.stock(t, f.widget, "W-SOON", 5, &sooner)

	resp := f.create(t, f.item(f.widget, 4))
	require.NotNil(t, resp.Items[0].PlacementID)
	assert.Equal(t, soonBatch, *resp.Items[0].PlacementID)

	// the soonest batch cannot cover 10, so the next expiry is used
	resp = f.create(t, f.item(f.widget, 10))
	assert.Equal(t, lateBatch, *resp.Items[0].PlacementID)
	assert.Zero(t, f.reserved(t, undated))
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty items", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{CustomerID: f.customer.ID}, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{f.item(f.widget, 0)},
		}, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: uuid.New(),
			Items:      []CreateOrderItemInput{f.item(f.widget, 1)},
		}, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("inactive customer", func(t *testing.T) {
		f := newOrderFixture(t)
		f.customer.AccountStatus = partner.AccountStatusInactive
		require.NoError(t, f.customers.Save(ctx, f.customer))
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{f.item(f.widget, 1)},
		}, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("inactive product", func(t *testing.T) {
		f := newOrderFixture(t)
		f.stock(t, f.widget, "W1", 10, nil)
		f.widget.Deactivate()
		require.NoError(t, f.products.Save(ctx, f.widget))
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{f.item(f.widget, 1)},
		}, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newOrderFixture(t)
		item := f.item(f.widget, 1)
		item.ProductID = uuid.New()
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{item},
		}, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("no stock at location", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: f.customer.ID,
			Items:      []CreateOrderItemInput{f.item(f.widget, 1)},
		}, "")
		var stockErr *shared.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Zero(t, stockErr.Available)
	})
}

func TestOrderService_CreateOrder_Idempotency(t *testing.T) {
	f := newOrderFixture(t)
	widgetStock := f.stock(t, f.widget, "W1", 20, nil)
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	f.service.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())
	ctx := context.Background()
	req := CreateOrderRequest{CustomerID: f.customer.ID, Items: []CreateOrderItemInput{f.item(f.widget, 3)}}

	_, err := f.service.CreateOrder(ctx, req, "key-1")
	require.NoError(t, err)

	_, err = f.service.CreateOrder(ctx, req, "key-1")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Equal(t, int64(3), f.reserved(t, widgetStock), "replay must not reserve again")

	// a failed attempt frees its key
	tooMany := CreateOrderRequest{CustomerID: f.customer.ID, Items: []CreateOrderItemInput{f.item(f.widget, 100)}}
	_, err = f.service.CreateOrder(ctx, tooMany, "key-2")
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	_, err = f.service.CreateOrder(ctx, req, "key-2")
	assert.NoError(t, err)
}

func TestOrderService_TransitionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("picking consumes the reservation", func(t *testing.T) {
		f := newOrderFixture(t)
		stock := f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 6))

		resp, err := f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: "Picked"})
		require.NoError(t, err)
		assert.Equal(t, "Picked", resp.Status)

		p, _ := f.placements.Get(stock)
		assert.Equal(t, int64(14), p.Quantity)
		assert.Zero(t, p.ReservedQuantity)
		assert.Equal(t, int64(14), f.products.Quantity(f.widget.ID))

		txs := f.transactions.All()
		last := txs[len(txs)-1]
		assert.Equal(t, inventory.TransactionTypeOutbound, last.TransactionType)
		assert.Equal(t, int64(6), last.Quantity)
		assert.Equal(t, "order:"+order.ID.String(), last.Reference)
	})

	t.Run("walks to delivered", func(t *testing.T) {
		f := newOrderFixture(t)
		f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 1))
		for _, status := range []string{"Picked", "Packed", "Shipped"} {
			_, err := f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: status})
			require.NoError(t, err)
		}
		resp, err := f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: "Delivered"})
		require.NoError(t, err)
		assert.NotNil(t, resp.FulfilledAt)

		_, err = f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: "Cancelled"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		f := newOrderFixture(t)
		stock := f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 2))

		_, err := f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: "Shipped"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, int64(2), f.reserved(t, stock))
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.service.TransitionOrder(ctx, uuid.New(), UpdateOrderStatusRequest{Status: "Picked"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserved order releases stock", func(t *testing.T) {
		f := newOrderFixture(t)
		stock := f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 7))
		entries := len(f.transactions.All())

		resp, err := f.service.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cancelled", resp.Status)
		assert.Zero(t, f.reserved(t, stock))
		assert.Len(t, f.transactions.All(), entries)
		assert.Len(t, f.publisher.OfType(trade.EventTypeOrderCancelled), 1)
	})

	t.Run("picked order is restocked", func(t *testing.T) {
		f := newOrderFixture(t)
		stock := f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 7))
		_, err := f.service.TransitionOrder(ctx, order.ID, UpdateOrderStatusRequest{Status: "Picked"})
		require.NoError(t, err)
		require.Equal(t, int64(13), f.products.Quantity(f.widget.ID))

		_, err = f.service.CancelOrder(ctx, order.ID)
		require.NoError(t, err)

		p, _ := f.placements.Get(stock)
		assert.Equal(t, int64(20), p.Quantity)
		assert.Equal(t, int64(20), f.products.Quantity(f.widget.ID))
		txs := f.transactions.All()
		assert.Equal(t, inventory.TransactionTypeInbound, txs[len(txs)-1].TransactionType)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		f := newOrderFixture(t)
		f.stock(t, f.widget, "W1", 20, nil)
		order := f.create(t, f.item(f.widget, 1))
		_, err := f.service.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		_, err = f.service.CancelOrder(ctx, order.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newOrderFixture(t)
	f.stock(t, f.widget, "W1", 20, nil)
	first := f.create(t, f.item(f.widget, 1))
	f.create(t, f.item(f.widget, 1))
	_, err := f.service.CancelOrder(context.Background(), first.ID)
	require.NoError(t, err)

	orders, total, err := f.service.ListOrders(context.Background(), OrderListFilter{Status: "Reserved"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "Reserved", orders[0].Status)
}

func TestOrderService_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	stock := f.stock(t, f.widget, "W1", 100, nil)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateOrder(context.Background(), CreateOrderRequest{
				CustomerID: f.customer.ID,
				Items:      []CreateOrderItemInput{f.item(f.widget, 30)},
			}, "")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, shared.ErrInsufficientStock) || errors.Is(err, shared.ErrConcurrencyConflict), err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded, 3)
	assert.Equal(t, int64(succeeded*30), f.reserved(t, stock))
	assert.Equal(t, succeeded, f.orders.Len())
}

func TestCanonicalItems(t *testing.T) {
	order, err := trade.NewOrder(uuid.New(), "")
	require.NoError(t, err)
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	w, l := uuid.New(), uuid.New()
	_, err = order.AddItem(b, w, l, 1, decimal.Zero)
	require.NoError(t, err)
	_, err = order.AddItem(a, w, l, 1, decimal.Zero)
	require.NoError(t, err)

	items := canonicalItems(order)
	assert.Equal(t, a, items[0].ProductID)
	assert.Equal(t, b, items[1].ProductID)
	assert.Equal(t, b, order.Items[0].ProductID, "order keeps its own item order")
}
