package catalog

import (
	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductQuantityChanged = "ProductQuantityChanged"
)

// Reasons attached to ProductQuantityChanged
const (
	ReasonInbound          = "INBOUND"
	ReasonOutbound         = "OUTBOUND"
	ReasonPlacementRemoved = "PLACEMENT_REMOVED"
	ReasonReconcile        = "RECONCILE"
)

// ProductQuantityChangedEvent is published when the cached on-hand total moves
type ProductQuantityChangedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	SKU         string    `json:"sku"`
	OldQuantity int64     `json:"old_quantity"`
	NewQuantity int64     `json:"new_quantity"`
	Reason      string    `json:"reason"`
}

// NewProductQuantityChangedEvent creates a new ProductQuantityChangedEvent
func NewProductQuantityChangedEvent(p *Product, oldQty int64, reason string) *ProductQuantityChangedEvent {
	return &ProductQuantityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductQuantityChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		OldQuantity:     oldQty,
		NewQuantity:     p.Quantity,
		Reason:          reason,
	}
}
