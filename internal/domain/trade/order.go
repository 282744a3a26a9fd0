package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/shared"
)

// OrderStatus represents the status of a customer order
type OrderStatus string

const (
	OrderStatusReceived   OrderStatus = "Received"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusReserved   OrderStatus = "Reserved"
	OrderStatusPicked     OrderStatus = "Picked"
	OrderStatusPacked     OrderStatus = "Packed"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusReceived, OrderStatusProcessing, OrderStatusReserved, OrderStatusPicked,
		OrderStatusPacked, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// HoldsReservation reports whether items still have stock reserved
func (s OrderStatus) HoldsReservation() bool {
	return s == OrderStatusReserved
}

// HasConsumedStock reports whether items have physically left their placements
func (s OrderStatus) HasConsumedStock() bool {
	switch s {
	case OrderStatusPicked, OrderStatusPacked, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target.
// Statuses advance one step at a time; Cancelled is reachable from any
// non-terminal status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusReceived:
		return target == OrderStatusProcessing
	case OrderStatusProcessing:
		return target == OrderStatusReserved
	case OrderStatusReserved:
		return target == OrderStatusPicked
	case OrderStatusPicked:
		return target == OrderStatusPacked
	case OrderStatusPacked:
		return target == OrderStatusShipped
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// DefaultPOSTerminalID is used when an order does not name a terminal
const DefaultPOSTerminalID = "POS_DEFAULT"

// OrderItem is one line of an order. Price is fixed when the item is added.
type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	LocationID       uuid.UUID
	PlacementID      *uuid.UUID
	Quantity         int64
	Price            decimal.Decimal
	POSTransactionID *uuid.UUID
}

// Order is the aggregate root for a customer order
type Order struct {
	shared.BaseAggregateRoot
	CustomerID    uuid.UUID
	OrderDate     time.Time
	Status        OrderStatus
	TotalPrice    decimal.Decimal
	POSProcessed  bool
	POSTerminalID string
	ReservedAt    *time.Time
	FulfilledAt   *time.Time
	Items         []OrderItem
}

// NewOrder creates a new order in the Received status
func NewOrder(customerID uuid.UUID, posTerminalID string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "is required")
	}
	if len(posTerminalID) > 50 {
		return nil, shared.NewValidationError("pos_terminal_id", "cannot exceed 50 characters")
	}
	if posTerminalID == "" {
		posTerminalID = DefaultPOSTerminalID
	}
	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		OrderDate:         time.Now(),
		Status:            OrderStatusReceived,
		TotalPrice:        decimal.Zero,
		POSTerminalID:     posTerminalID,
	}
	return order, nil
}

// AddItem appends a line priced at unitPrice × quantity
func (o *Order) AddItem(productID, warehouseID, locationID uuid.UUID, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	if o.Status != OrderStatusReceived {
		return nil, shared.NewInvalidStateError("items can only be added to a received order")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be greater than 0")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("price", "cannot be negative")
	}
	o.Items = append(o.Items, OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		LocationID:  locationID,
		Quantity:    quantity,
		Price:       unitPrice.Mul(decimal.NewFromInt(quantity)).Round(2),
	})
	return &o.Items[len(o.Items)-1], nil
}

// Item returns the item with the given id
func (o *Order) Item(id uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// RecalculateTotal sets TotalPrice to the sum of item prices
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price)
	}
	o.TotalPrice = total
}

// TransitionTo moves the order to target, enforcing the status machine
func (o *Order) TransitionTo(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", "unknown order status "+string(target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("cannot move order from %s to %s", o.Status, target)
	}
	from := o.Status
	o.Status = target
	if target == OrderStatusDelivered {
		now := time.Now()
		o.FulfilledAt = &now
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// StartProcessing moves a received order into Processing
func (o *Order) StartProcessing() error {
	return o.TransitionTo(OrderStatusProcessing)
}

// MarkReserved records that every item holds a reservation
func (o *Order) MarkReserved(at time.Time) error {
	if len(o.Items) == 0 {
		return shared.NewValidationError("items", "order has no items")
	}
	for _, item := range o.Items {
		if item.PlacementID == nil {
			return shared.NewInvariantViolation("order %s item %s has no reservation", o.ID, item.ID)
		}
	}
	if err := o.TransitionTo(OrderStatusReserved); err != nil {
		return err
	}
	o.RecalculateTotal()
	o.ReservedAt = &at
	o.POSProcessed = true
	o.AddDomainEvent(NewOrderReservedEvent(o))
	return nil
}

// Cancel moves the order to Cancelled and returns the status it left
func (o *Order) Cancel() (OrderStatus, error) {
	from := o.Status
	if err := o.TransitionTo(OrderStatusCancelled); err != nil {
		return from, err
	}
	o.AddDomainEvent(NewOrderCancelledEvent(o, from))
	return from, nil
}
