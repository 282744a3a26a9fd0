package inventory

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/shared"
)

// StorageType is how a placement is physically stored
type StorageType string

const (
	StorageShelf       StorageType = "shelf"
	StorageRack        StorageType = "rack"
	StorageColdStorage StorageType = "cold_storage"
	StoragePallet      StorageType = "pallet"
)

// IsValid checks if the storage type is known
func (s StorageType) IsValid() bool {
	switch s {
	case StorageShelf, StorageRack, StorageColdStorage, StoragePallet:
		return true
	}
	return false
}

// Default stock levels for a new placement
const (
	DefaultMinStockLevel int64 = 0
	DefaultMaxStockLevel int64 = 1000
)

// PlacementAttributes are the descriptive fields of a placement that do not
// move stock
type PlacementAttributes struct {
	MinStockLevel int64
	MaxStockLevel int64
	StorageType   StorageType
	Category      string
	Weight        decimal.Decimal
	ExpiryDate    *time.Time
}

// DefaultPlacementAttributes returns the attributes used when none are given
func DefaultPlacementAttributes() PlacementAttributes {
	return PlacementAttributes{
		MinStockLevel: DefaultMinStockLevel,
		MaxStockLevel: DefaultMaxStockLevel,
		StorageType:   StorageShelf,
		Weight:        decimal.Zero,
	}
}

func (a PlacementAttributes) validate() error {
	verr := &shared.ValidationError{}
	if a.MinStockLevel < 0 {
		verr.Add("min_stock_level", "cannot be negative")
	}
	if a.MaxStockLevel < a.MinStockLevel {
		verr.Add("max_stock_level", "must not be below min_stock_level")
	}
	if !a.StorageType.IsValid() {
		verr.Add("storage_type", "must be shelf, rack, cold_storage or pallet")
	}
	if a.Weight.IsNegative() {
		verr.Add("weight", "cannot be negative")
	}
	if len(a.Category) > 100 {
		verr.Add("category", "cannot exceed 100 characters")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// StockPlacement is the stock held for one (product, warehouse, location, batch).
//
// Invariant: 0 <= ReservedQuantity <= Quantity. Every mutating method checks
// the invariant before changing state and leaves the placement untouched on
// failure. Callers must hold the placement lock.
type StockPlacement struct {
	shared.BaseAggregateRoot
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	LocationID       uuid.UUID
	BatchNumber      string
	Quantity         int64
	ReservedQuantity int64
	PlacementAttributes
}

// NewStockPlacement creates an empty placement
func NewStockPlacement(productID, warehouseID, locationID uuid.UUID, batchNumber string, attrs PlacementAttributes) (*StockPlacement, error) {
	verr := &shared.ValidationError{}
	if productID == uuid.Nil {
		verr.Add("product_id", "is required")
	}
	if warehouseID == uuid.Nil {
		verr.Add("warehouse_id", "is required")
	}
	if locationID == uuid.Nil {
		verr.Add("location_id", "is required")
	}
	batchNumber = strings.TrimSpace(batchNumber)
	if len(batchNumber) > 50 {
		verr.Add("batch_number", "cannot exceed 50 characters")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	if attrs.StorageType == "" {
		attrs.StorageType = StorageShelf
	}
	if err := attrs.validate(); err != nil {
		return nil, err
	}

	return &StockPlacement{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ProductID:           productID,
		WarehouseID:         warehouseID,
		LocationID:          locationID,
		BatchNumber:         batchNumber,
		PlacementAttributes: attrs,
	}, nil
}

// Available returns the quantity that may still be reserved
func (p *StockPlacement) Available() int64 {
	return p.Quantity - p.ReservedQuantity
}

// IsBelowMinimum reports whether on-hand stock is below the minimum level
func (p *StockPlacement) IsBelowMinimum() bool {
	return p.MinStockLevel > 0 && p.Quantity < p.MinStockLevel
}

// CheckInvariants validates the quantity invariants
func (p *StockPlacement) CheckInvariants() error {
	if p.Quantity < 0 || p.ReservedQuantity < 0 || p.ReservedQuantity > p.Quantity {
		return shared.NewInvariantViolation(
			"placement %s is inconsistent: quantity=%d reserved=%d", p.ID, p.Quantity, p.ReservedQuantity)
	}
	return nil
}

func (p *StockPlacement) insufficient(requested int64) error {
	return &shared.InsufficientStockError{
		ProductID:   p.ProductID,
		PlacementID: p.ID,
		Available:   p.Available(),
		Requested:   requested,
	}
}

// Reserve commits qty units to an order without removing them from the shelf
func (p *StockPlacement) Reserve(qty int64) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be greater than 0")
	}
	if p.Available() < qty {
		return p.insufficient(qty)
	}
	p.ReservedQuantity += qty
	p.IncrementVersion()
	p.AddDomainEvent(NewStockReservedEvent(p, qty))
	return nil
}

// Release gives back qty previously reserved units
func (p *StockPlacement) Release(qty int64) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be greater than 0")
	}
	if qty > p.ReservedQuantity {
		return shared.NewInvariantViolation(
			"cannot release %d units from placement %s: only %d reserved", qty, p.ID, p.ReservedQuantity)
	}
	p.ReservedQuantity -= qty
	p.IncrementVersion()
	p.AddDomainEvent(NewStockReleasedEvent(p, qty))
	return nil
}

// Adjust moves on-hand stock in or out. OUTBOUND may only take unreserved stock.
// It returns the signed delta applied to Quantity.
func (p *StockPlacement) Adjust(txType TransactionType, qty int64) (int64, error) {
	if !txType.IsValid() {
		return 0, shared.NewValidationError("transaction_type", "must be INBOUND or OUTBOUND")
	}
	if qty <= 0 {
		return 0, shared.NewValidationError("quantity", "must be greater than 0")
	}
	if txType == TransactionTypeOutbound && p.Available() < qty {
		return 0, p.insufficient(qty)
	}
	if txType == TransactionTypeInbound && qty > math.MaxInt64-p.Quantity {
		return 0, shared.NewValidationError("quantity", "would overflow the placement quantity")
	}

	delta := txType.Sign() * qty
	p.Quantity += delta
	p.IncrementVersion()
	p.AddDomainEvent(NewStockAdjustedEvent(p, txType, qty))
	return delta, nil
}

// PrepareRemoval checks the placement may be deleted and returns the on-hand
// quantity that leaves the ledger with it
func (p *StockPlacement) PrepareRemoval() (int64, error) {
	if p.ReservedQuantity > 0 {
		return 0, shared.NewInvalidStateError(
			"placement %s has %d reserved units and cannot be removed", p.ID, p.ReservedQuantity)
	}
	remaining := p.Quantity
	p.AddDomainEvent(NewPlacementRemovedEvent(p, remaining))
	return remaining, nil
}

// UpdateAttributes replaces the descriptive fields
func (p *StockPlacement) UpdateAttributes(attrs PlacementAttributes) error {
	if attrs.StorageType == "" {
		attrs.StorageType = p.StorageType
	}
	if err := attrs.validate(); err != nil {
		return err
	}
	p.PlacementAttributes = attrs
	p.IncrementVersion()
	return nil
}
