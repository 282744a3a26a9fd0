package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Filter keys understood by the inventory repositories
const (
	FilterProductID       = "product_id"
	FilterWarehouseID     = "warehouse_id"
	FilterLocationID      = "location_id"
	FilterPlacementID     = "placement_id"
	FilterBelowMinimum    = "below_min"
	FilterTransactionType = "transaction_type"
	FilterFrom            = "from"
	FilterTo              = "to"
)

// PlacementRepository defines the interface for stock placement persistence
type PlacementRepository interface {
	// FindByID finds a placement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockPlacement, error)

	// FindByIDForUpdate loads a placement holding its row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockPlacement, error)

	// FindAtLocation lists every placement of a product at a location in id
	// order without locking them
	FindAtLocation(ctx context.Context, productID, warehouseID, locationID uuid.UUID) ([]StockPlacement, error)

	// ExistsForBatch reports whether the (product, warehouse, location, batch) tuple is taken
	ExistsForBatch(ctx context.Context, productID, warehouseID, locationID uuid.UUID, batchNumber string) (bool, error)

	// FindAll finds placements matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockPlacement, error)

	// Count counts placements matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// SumQuantityByProduct returns the on-hand total across a product's placements
	SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// SumReservedByProduct returns the reserved total across a product's placements
	SumReservedByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// SumQuantityAt returns the on-hand total of a product at one location
	SumQuantityAt(ctx context.Context, warehouseID, productID, locationID uuid.UUID) (int64, error)

	// Create inserts a new placement
	Create(ctx context.Context, placement *StockPlacement) error

	// Save updates a placement
	Save(ctx context.Context, placement *StockPlacement) error

	// Delete removes a placement
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository is the append-only store of ledger entries.
// It deliberately has no update or delete.
type TransactionRepository interface {
	// Create appends a transaction
	Create(ctx context.Context, tx *StockTransaction) error

	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransaction, error)

	// FindAll lists transactions, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]StockTransaction, error)

	// Count counts transactions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// SumSigned returns Σ(INBOUND) - Σ(OUTBOUND) for a placement
	SumSigned(ctx context.Context, placementID uuid.UUID) (int64, error)
}

// AuditRepository is the append-only store of audit snapshots
type AuditRepository interface {
	// Create appends a snapshot
	Create(ctx context.Context, audit *StockAudit) error

	// FindByID finds a snapshot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockAudit, error)

	// FindAll lists snapshots, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]StockAudit, error)

	// Count counts snapshots matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindLatestPerLocation returns the newest snapshot for each
	// (warehouse, product, location) matching the filter
	FindLatestPerLocation(ctx context.Context, filter shared.Filter) ([]StockAudit, error)
}
