package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	appinv "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/partner"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderRecorder receives order outcomes for metrics
type OrderRecorder interface {
	RecordOrderCreated(ctx context.Context, items int)
	RecordOrderRejected(ctx context.Context, reason string)
}

// OrderService coordinates order creation with stock reservations and
// drives the order status machine.
type OrderService struct {
	orderRepo      trade.OrderRepository
	customerRepo   partner.CustomerRepository
	references     *appinv.ReferenceChecker
	ledger         *appinv.Ledger
	txScope        OrderTransactionScope
	idempotency    shared.IdempotencyStore
	idemConfig     shared.IdempotencyConfig
	eventPublisher shared.EventPublisher
	recorder       OrderRecorder
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	references *appinv.ReferenceChecker,
	ledger *appinv.Ledger,
	txScope OrderTransactionScope,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		references:   references,
		ledger:       ledger,
		txScope:      txScope,
		idemConfig:   shared.DefaultIdempotencyConfig(),
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling on order creation
func (s *OrderService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = cfg
}

// SetOrderRecorder sets the metrics sink for order outcomes
func (s *OrderService) SetOrderRecorder(recorder OrderRecorder) {
	s.recorder = recorder
}

// publish sends the events of committed aggregates
func (s *OrderService) publish(ctx context.Context, order *trade.Order, mutations []*appinv.Mutation) {
	if s.eventPublisher == nil {
		return
	}
	var events []shared.DomainEvent
	for _, m := range mutations {
		events = append(events, m.Events()...)
	}
	if order != nil {
		events = append(events, order.GetDomainEvents()...)
		order.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders lists orders with filtering and pagination
func (s *OrderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := filter.toDomain()
	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// CreateOrder validates the request, then in one transaction creates the
// order, reserves stock for every item and writes the POS records. Either
// every item is reserved or nothing is persisted.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (resp *OrderResponse, err error) {
	if idempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		claimed, claimErr := s.idempotency.Claim(ctx, "order:"+idempotencyKey, s.idemConfig.TTL)
		if claimErr != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "A request with this Idempotency-Key was already processed")
		}
		defer func() {
			if err != nil {
				_ = s.idempotency.Forget(context.WithoutCancel(ctx), "order:"+idempotencyKey)
			}
		}()
	}
	defer func() {
		if err != nil && s.recorder != nil {
			s.recorder.RecordOrderRejected(ctx, rejectionReason(err))
		}
	}()

	order, products, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	var mutations []*appinv.Mutation
	err = s.txScope.Execute(ctx, func(repos OrderRepositories) error {
		mutations = nil
		if err := order.StartProcessing(); err != nil {
			return err
		}
		reserved, err := s.reserveItems(ctx, repos, order)
		mutations = reserved
		if err != nil {
			return err
		}
		if err := s.persistReserved(ctx, repos, order, products); err != nil {
			if relErr := s.releaseReserved(ctx, repos, canonicalItems(order)); relErr != nil {
				s.logger.Error("Failed to release reservations of a rejected order",
					zap.String("order_id", order.ID.String()),
					zap.Error(relErr),
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Info("Order rejected: insufficient stock",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.publish(ctx, order, mutations)
	if s.recorder != nil {
		s.recorder.RecordOrderCreated(ctx, len(order.Items))
	}
	s.logger.Info("Order reserved",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total_price", order.TotalPrice.String()),
	)
	out := ToOrderResponse(order)
	return &out, nil
}

// buildOrder validates references and snapshots item prices
func (s *OrderService) buildOrder(ctx context.Context, req CreateOrderRequest) (*trade.Order, map[uuid.UUID]*catalog.Product, error) {
	if len(req.Items) == 0 {
		return nil, nil, shared.NewValidationError("items", "at least one item is required")
	}
	verr := &shared.ValidationError{}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewNotFoundError("Customer", req.CustomerID)
		}
		return nil, nil, err
	}
	if !customer.CanOrder() {
		return nil, nil, shared.NewValidationError("customer_id", "customer account is not active")
	}

	order, err := trade.NewOrder(customer.ID, req.POSTerminalID)
	if err != nil {
		return nil, nil, err
	}
	products := make(map[uuid.UUID]*catalog.Product)
	for i, in := range req.Items {
		product, err := s.references.Check(ctx, in.ProductID, in.WarehouseID, in.LocationID)
		if err != nil {
			return nil, nil, err
		}
		if !product.IsActive {
			return nil, nil, shared.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "product is not active")
		}
		products[product.ID] = product
		if _, err := order.AddItem(in.ProductID, in.WarehouseID, in.LocationID, in.Quantity, product.Price); err != nil {
			return nil, nil, err
		}
	}
	return order, products, nil
}

// persistReserved marks the order reserved and writes it together with one
// verified POS record per item
func (s *OrderService) persistReserved(ctx context.Context, repos OrderRepositories, order *trade.Order, products map[uuid.UUID]*catalog.Product) error {
	if err := order.MarkReserved(time.Now()); err != nil {
		return err
	}
	posRecords := make([]*trade.POSTransaction, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		posRecords = append(posRecords, trade.NewVerifiedPOSTransaction(order, item, products[item.ProductID].Barcode))
	}
	if err := repos.OrderRepo().Create(ctx, order); err != nil {
		return err
	}
	for _, pos := range posRecords {
		if err := repos.POSRepo().Create(ctx, pos); err != nil {
			return err
		}
	}
	return nil
}

// reserveItems reserves every item of the order. It reads the candidate
// placements of all items first, locks their union in ascending id order and
// only then picks placements, so it locks in the same order as picking and
// cancelling. On the first failure it releases what this call already
// reserved and returns the error.
func (s *OrderService) reserveItems(ctx context.Context, repos OrderRepositories, order *trade.Order) ([]*appinv.Mutation, error) {
	items := canonicalItems(order)
	candidates := make([][]uuid.UUID, len(items))
	var ids []uuid.UUID
	for i, item := range items {
		rows, err := repos.PlacementRepo().FindAtLocation(ctx, item.ProductID, item.WarehouseID, item.LocationID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			candidates[i] = append(candidates[i], row.ID)
			ids = append(ids, row.ID)
		}
	}

	locked, err := s.lockPlacements(ctx, repos, ids)
	if err != nil {
		return nil, err
	}

	mutations := make([]*appinv.Mutation, 0, len(items))
	for i, item := range items {
		placement, err := choosePlacement(item, candidates[i], locked)
		if err == nil {
			var m *appinv.Mutation
			m, err = s.ledger.ReserveLocked(ctx, repos, placement, item.Quantity)
			if err == nil {
				id := placement.ID
				item.PlacementID = &id
				mutations = append(mutations, m)
				continue
			}
		}

		if relErr := s.releaseReserved(ctx, repos, items); relErr != nil {
			s.logger.Error("Failed to release reservations of a rejected order",
				zap.String("order_id", order.ID.String()),
				zap.Error(relErr),
			)
		}
		return nil, err
	}
	return mutations, nil
}

// canonicalItems returns pointers to the order's items sorted by
// (product, warehouse, location)
func canonicalItems(order *trade.Order) []*trade.OrderItem {
	items := make([]*trade.OrderItem, len(order.Items))
	for i := range order.Items {
		items[i] = &order.Items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := compareUUID(a.ProductID, b.ProductID); c != 0 {
			return c < 0
		}
		if c := compareUUID(a.WarehouseID, b.WarehouseID); c != 0 {
			return c < 0
		}
		return compareUUID(a.LocationID, b.LocationID) < 0
	})
	return items
}

func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// lockPlacements takes the lease and the row lock of every placement in
// ascending id order. A placement removed since it was read is skipped.
func (s *OrderService) lockPlacements(ctx context.Context, repos OrderRepositories, ids []uuid.UUID) (map[uuid.UUID]*inventory.StockPlacement, error) {
	sort.Slice(ids, func(i, j int) bool { return compareUUID(ids[i], ids[j]) < 0 })
	locked := make(map[uuid.UUID]*inventory.StockPlacement, len(ids))
	for _, id := range ids {
		if _, ok := locked[id]; ok {
			continue
		}
		p, err := s.ledger.LockPlacement(ctx, repos, id)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// choosePlacement picks one of the item's locked candidates by FEFO:
// earliest expiry first, undated last, then oldest.
func choosePlacement(item *trade.OrderItem, candidates []uuid.UUID, locked map[uuid.UUID]*inventory.StockPlacement) (*inventory.StockPlacement, error) {
	pool := make([]*inventory.StockPlacement, 0, len(candidates))
	for _, id := range candidates {
		if p, ok := locked[id]; ok {
			pool = append(pool, p)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	var best int64
	for _, p := range pool {
		if p.Available() >= item.Quantity {
			return p, nil
		}
		if p.Available() > best {
			best = p.Available()
		}
	}
	return nil, &shared.InsufficientStockError{
		ProductID: item.ProductID,
		Available: best,
		Requested: item.Quantity,
	}
}

// releaseReserved gives back the reservations recorded on items
func (s *OrderService) releaseReserved(ctx context.Context, repos OrderRepositories, items []*trade.OrderItem) error {
	var errs []error
	for _, item := range items {
		if item.PlacementID == nil {
			continue
		}
		if _, err := s.ledger.Release(ctx, repos, *item.PlacementID, item.Quantity); err != nil {
			errs = append(errs, err)
			continue
		}
		item.PlacementID = nil
	}
	return errors.Join(errs...)
}

// TransitionOrder moves an order along the status machine. Entering Picked
// consumes the reserved stock; Cancelled goes through CancelOrder.
func (s *OrderService) TransitionOrder(ctx context.Context, id uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	target := trade.OrderStatus(req.Status)
	if target == trade.OrderStatusCancelled {
		return s.CancelOrder(ctx, id)
	}
	if !target.IsValid() {
		return nil, shared.NewValidationError("status", "unknown order status "+req.Status)
	}

	var (
		order     *trade.Order
		mutations []*appinv.Mutation
	)
	err := s.txScope.Execute(ctx, func(repos OrderRepositories) error {
		o, err := s.lockOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := o.TransitionTo(target); err != nil {
			return err
		}
		if target == trade.OrderStatusPicked {
			mutations, err = s.consumeReservations(ctx, repos, o)
			if err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order, mutations)
	s.logger.Info("Order status changed",
		zap.String("order_id", id.String()),
		zap.String("status", order.Status.String()),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) lockOrder(ctx context.Context, repos OrderRepositories, id uuid.UUID) (*trade.Order, error) {
	if err := repos.Locks().Lock(ctx, shared.OrderKey(id)); err != nil {
		return nil, err
	}
	return repos.OrderRepo().FindByIDForUpdate(ctx, id)
}

// lockItemPlacements takes every item's placement lock in ascending id order
// before any product lock is requested
func (s *OrderService) lockItemPlacements(ctx context.Context, repos OrderRepositories, items []*trade.OrderItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.PlacementID != nil {
			ids = append(ids, *item.PlacementID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return compareUUID(ids[i], ids[j]) < 0 })
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		if _, err := s.ledger.LockPlacement(ctx, repos, id); err != nil {
			return err
		}
	}
	return nil
}

// consumeReservations turns each item's reservation into an OUTBOUND movement
func (s *OrderService) consumeReservations(ctx context.Context, repos OrderRepositories, order *trade.Order) ([]*appinv.Mutation, error) {
	items := canonicalItems(order)
	if err := s.lockItemPlacements(ctx, repos, items); err != nil {
		return nil, err
	}
	mutations := make([]*appinv.Mutation, 0, 2*len(items))
	for _, item := range items {
		if item.PlacementID == nil {
			return nil, shared.NewInvariantViolation("order %s item %s has no reservation", order.ID, item.ID)
		}
		released, err := s.ledger.Release(ctx, repos, *item.PlacementID, item.Quantity)
		if err != nil {
			return nil, err
		}
		adjusted, err := s.ledger.Adjust(ctx, repos, appinv.AdjustCommand{
			PlacementID: *item.PlacementID,
			Type:        inventory.TransactionTypeOutbound,
			Quantity:    item.Quantity,
			Reference:   "order:" + order.ID.String(),
			Note:        "picked",
		})
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, released, adjusted)
	}
	return mutations, nil
}

// CancelOrder cancels a non-terminal order, giving back whatever stock it holds
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	var (
		order     *trade.Order
		from      trade.OrderStatus
		mutations []*appinv.Mutation
	)
	err := s.txScope.Execute(ctx, func(repos OrderRepositories) error {
		o, err := s.lockOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		from, err = o.Cancel()
		if err != nil {
			return err
		}
		switch {
		case from.HoldsReservation():
			items := canonicalItems(o)
			if err := s.lockItemPlacements(ctx, repos, items); err != nil {
				return err
			}
			for _, item := range items {
				if item.PlacementID == nil {
					continue
				}
				m, err := s.ledger.Release(ctx, repos, *item.PlacementID, item.Quantity)
				if err != nil {
					return err
				}
				mutations = append(mutations, m)
			}
		case from.HasConsumedStock():
			mutations, err = s.restock(ctx, repos, o)
			if err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order, mutations)
	s.logger.Info("Order cancelled",
		zap.String("order_id", id.String()),
		zap.String("from_status", from.String()),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// restock returns picked stock to its placement with an INBOUND movement.
// Items whose placement no longer exists are skipped.
func (s *OrderService) restock(ctx context.Context, repos OrderRepositories, order *trade.Order) ([]*appinv.Mutation, error) {
	items := canonicalItems(order)
	if err := s.lockItemPlacements(ctx, repos, items); err != nil {
		return nil, err
	}
	var mutations []*appinv.Mutation
	for _, item := range items {
		if item.PlacementID == nil {
			continue
		}
		m, err := s.ledger.Adjust(ctx, repos, appinv.AdjustCommand{
			PlacementID: *item.PlacementID,
			Type:        inventory.TransactionTypeInbound,
			Quantity:    item.Quantity,
			Reference:   "order:" + order.ID.String(),
			Note:        "order cancelled",
		})
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Placement gone, cancelled item not restocked",
				zap.String("order_id", order.ID.String()),
				zap.String("placement_id", item.PlacementID.String()),
				zap.Int64("quantity", item.Quantity),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}
	return mutations, nil
}

func rejectionReason(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return shared.CodeInternal
}
