package inventory

import (
	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypePlacement  = "StockPlacement"
	AggregateTypeStockAudit = "StockAudit"
)

// Event type constants
const (
	EventTypeStockReserved      = "StockReserved"
	EventTypeStockReleased      = "StockReleased"
	EventTypeStockAdjusted      = "StockAdjusted"
	EventTypePlacementRemoved   = "PlacementRemoved"
	EventTypeStockDriftDetected = "StockDriftDetected"
)

// placementSnapshot is embedded in every placement event
type placementSnapshot struct {
	PlacementID      uuid.UUID `json:"placement_id"`
	ProductID        uuid.UUID `json:"product_id"`
	WarehouseID      uuid.UUID `json:"warehouse_id"`
	LocationID       uuid.UUID `json:"location_id"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
}

func snapshotOf(p *StockPlacement) placementSnapshot {
	return placementSnapshot{
		PlacementID:      p.ID,
		ProductID:        p.ProductID,
		WarehouseID:      p.WarehouseID,
		LocationID:       p.LocationID,
		Quantity:         p.Quantity,
		ReservedQuantity: p.ReservedQuantity,
	}
}

// StockReservedEvent is published when units are committed to an order
type StockReservedEvent struct {
	shared.BaseDomainEvent
	placementSnapshot
	Reserved int64 `json:"reserved"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(p *StockPlacement, qty int64) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypePlacement, p.ID),
		placementSnapshot: snapshotOf(p),
		Reserved:          qty,
	}
}

// StockReleasedEvent is published when a reservation is given back
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	placementSnapshot
	Released int64 `json:"released"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(p *StockPlacement, qty int64) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypePlacement, p.ID),
		placementSnapshot: snapshotOf(p),
		Released:          qty,
	}
}

// StockAdjustedEvent is published for every INBOUND/OUTBOUND movement
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	placementSnapshot
	TransactionType TransactionType `json:"transaction_type"`
	Moved           int64           `json:"moved"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(p *StockPlacement, txType TransactionType, qty int64) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypePlacement, p.ID),
		placementSnapshot: snapshotOf(p),
		TransactionType:   txType,
		Moved:             qty,
	}
}

// PlacementRemovedEvent is published when a placement is deleted
type PlacementRemovedEvent struct {
	shared.BaseDomainEvent
	placementSnapshot
	Settled int64 `json:"settled"`
}

// NewPlacementRemovedEvent creates a new PlacementRemovedEvent
func NewPlacementRemovedEvent(p *StockPlacement, settled int64) *PlacementRemovedEvent {
	return &PlacementRemovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePlacementRemoved, AggregateTypePlacement, p.ID),
		placementSnapshot: snapshotOf(p),
		Settled:           settled,
	}
}

// StockDriftDetectedEvent is published when an audit disagrees with the ledger
type StockDriftDetectedEvent struct {
	shared.BaseDomainEvent
	DriftReport
}

// NewStockDriftDetectedEvent creates a new StockDriftDetectedEvent
func NewStockDriftDetectedEvent(r DriftReport) *StockDriftDetectedEvent {
	return &StockDriftDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDriftDetected, AggregateTypeStockAudit, r.AuditID),
		DriftReport:     r,
	}
}
