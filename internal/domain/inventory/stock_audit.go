package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// StockAudit is a counted quantity observed at a location, recorded
// independently of the ledger
type StockAudit struct {
	ID               uuid.UUID
	WarehouseID      uuid.UUID
	ProductID        uuid.UUID
	LocationID       uuid.UUID
	RecordedQuantity int64
	Note             string
	AuditDate        time.Time
}

// NewStockAudit creates a snapshot
func NewStockAudit(warehouseID, productID, locationID uuid.UUID, recorded int64, note string) (*StockAudit, error) {
	verr := &shared.ValidationError{}
	if warehouseID == uuid.Nil {
		verr.Add("warehouse_id", "is required")
	}
	if productID == uuid.Nil {
		verr.Add("product_id", "is required")
	}
	if locationID == uuid.Nil {
		verr.Add("location_id", "is required")
	}
	if recorded < 0 {
		verr.Add("recorded_quantity", "cannot be negative")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return &StockAudit{
		ID:               uuid.New(),
		WarehouseID:      warehouseID,
		ProductID:        productID,
		LocationID:       locationID,
		RecordedQuantity: recorded,
		Note:             note,
		AuditDate:        time.Now(),
	}, nil
}

// DriftReport compares the latest audit at a location with the live ledger
type DriftReport struct {
	AuditID     uuid.UUID `json:"audit_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	ProductID   uuid.UUID `json:"product_id"`
	LocationID  uuid.UUID `json:"location_id"`
	Recorded    int64     `json:"recorded_quantity"`
	Live        int64     `json:"live_quantity"`
	Delta       int64     `json:"delta"`
	AuditedAt   time.Time `json:"audited_at"`
}

// NewDriftReport builds a report; Delta is live minus recorded
func NewDriftReport(a *StockAudit, live int64) DriftReport {
	return DriftReport{
		AuditID:     a.ID,
		WarehouseID: a.WarehouseID,
		ProductID:   a.ProductID,
		LocationID:  a.LocationID,
		Recorded:    a.RecordedQuantity,
		Live:        live,
		Delta:       live - a.RecordedQuantity,
		AuditedAt:   a.AuditDate,
	}
}

// HasDrift reports whether the audit disagrees with the ledger
func (r DriftReport) HasDrift() bool {
	return r.Delta != 0
}
