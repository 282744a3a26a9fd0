package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Filter keys understood by OrderRepository.FindAll
const (
	FilterStatus     = "status"
	FilterCustomerID = "customer_id"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads an order with its items, holding the order row lock
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll lists orders (without items), newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts an order and its items
	Create(ctx context.Context, order *Order) error

	// Save updates the order header and its items
	Save(ctx context.Context, order *Order) error
}

// POSTransactionRepository stores point-of-sale records
type POSTransactionRepository interface {
	Create(ctx context.Context, tx *POSTransaction) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]POSTransaction, error)
}
