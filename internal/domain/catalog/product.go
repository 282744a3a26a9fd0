package catalog

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/shared"
)

// UnitType is the packaging unit a product is sold in
type UnitType string

const (
	UnitTypeSingle UnitType = "single"
	UnitTypeCase   UnitType = "case"
	UnitTypeBox    UnitType = "box"
)

// IsValid checks if the unit type is known
func (u UnitType) IsValid() bool {
	switch u {
	case UnitTypeSingle, UnitTypeCase, UnitTypeBox:
		return true
	}
	return false
}

// Product represents a sellable SKU.
// Quantity is the cached on-hand total across every placement of the product;
// it is only changed through ApplyQuantityDelta and ResetQuantity, which the
// stock ledger calls while holding the product lock.
type Product struct {
	shared.BaseAggregateRoot
	SKU         string
	Barcode     string
	Name        string
	Description string
	UnitType    UnitType
	Price       decimal.Decimal
	Weight      decimal.Decimal
	Quantity    int64
	IsActive    bool
}

// NewProduct creates a new active product with zero stock
func NewProduct(sku, barcode, name string, unitType UnitType, price, weight decimal.Decimal) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" || len(sku) > 50 {
		return nil, shared.NewValidationError("sku", "must be 1-50 characters")
	}
	if barcode == "" || len(barcode) > 50 {
		return nil, shared.NewValidationError("barcode", "must be 1-50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	if unitType == "" {
		unitType = UnitTypeSingle
	}
	if !unitType.IsValid() {
		return nil, shared.NewValidationError("unit_type", "must be single, case or box")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("price", "cannot be negative")
	}
	if weight.IsNegative() {
		return nil, shared.NewValidationError("weight", "cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Barcode:           barcode,
		Name:              name,
		UnitType:          unitType,
		Price:             price.Round(2),
		Weight:            weight,
		IsActive:          true,
	}, nil
}

// PriceFor returns the line price for qty units at the current price
func (p *Product) PriceFor(qty int64) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(qty)).Round(2)
}

// ApplyQuantityDelta moves the cached on-hand total by delta.
func (p *Product) ApplyQuantityDelta(delta int64, reason string) error {
	if delta == 0 {
		return nil
	}
	if delta > 0 && p.Quantity > math.MaxInt64-delta {
		return shared.NewValidationError("quantity", "would overflow the product quantity")
	}
	next := p.Quantity + delta
	if next < 0 {
		return shared.NewInvariantViolation(
			"product %s quantity would become negative (%d%+d)", p.ID, p.Quantity, delta)
	}
	old := p.Quantity
	p.Quantity = next
	p.IncrementVersion()
	p.AddDomainEvent(NewProductQuantityChangedEvent(p, old, reason))
	return nil
}

// ResetQuantity overwrites the cached total, used when reconciliation repairs drift
func (p *Product) ResetQuantity(qty int64) error {
	if qty < 0 {
		return shared.NewInvariantViolation("product %s quantity cannot be negative", p.ID)
	}
	if qty == p.Quantity {
		return nil
	}
	old := p.Quantity
	p.Quantity = qty
	p.IncrementVersion()
	p.AddDomainEvent(NewProductQuantityChangedEvent(p, old, ReasonReconcile))
	return nil
}

// Deactivate stops the product from being ordered
func (p *Product) Deactivate() {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	p.IncrementVersion()
}

// Activate allows the product to be ordered again
func (p *Product) Activate() {
	if p.IsActive {
		return
	}
	p.IsActive = true
	p.IncrementVersion()
}
