package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Filter keys understood by ProductRepository.FindAll
const (
	FilterIsActive = "is_active"
	FilterSearch   = "search"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate loads a product holding its row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ListIDs returns every product id, oldest first
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	Save(ctx context.Context, warehouse *Warehouse) error
}

// LocationRepository defines the interface for warehouse location persistence
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseLocation, error)
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]WarehouseLocation, error)
	Save(ctx context.Context, location *WarehouseLocation) error
}
