package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/shared"
)

// ReferenceChecker validates the product / warehouse / location triple that
// placements, audits and order items point at.
type ReferenceChecker struct {
	productRepo   catalog.ProductRepository
	warehouseRepo catalog.WarehouseRepository
	locationRepo  catalog.LocationRepository
}

// NewReferenceChecker creates a ReferenceChecker
func NewReferenceChecker(
	productRepo catalog.ProductRepository,
	warehouseRepo catalog.WarehouseRepository,
	locationRepo catalog.LocationRepository,
) *ReferenceChecker {
	return &ReferenceChecker{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
	}
}

// Check loads the product and verifies that the warehouse exists and owns the location.
// Missing references are NOT_FOUND; a location outside the warehouse is a validation error.
func (c *ReferenceChecker) Check(ctx context.Context, productID, warehouseID, locationID uuid.UUID) (*catalog.Product, error) {
	product, err := c.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundAs(err, "Product", productID)
	}
	if _, err := c.warehouseRepo.FindByID(ctx, warehouseID); err != nil {
		return nil, notFoundAs(err, "Warehouse", warehouseID)
	}
	location, err := c.locationRepo.FindByID(ctx, locationID)
	if err != nil {
		return nil, notFoundAs(err, "Location", locationID)
	}
	if !location.BelongsTo(warehouseID) {
		return nil, shared.NewValidationError("location_id", "location does not belong to the warehouse")
	}
	return product, nil
}

func notFoundAs(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}
