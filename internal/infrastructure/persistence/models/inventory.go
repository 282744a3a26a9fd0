package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/inventory"
)

// StockPlacementModel is the persistence model for the StockPlacement aggregate root.
// The CHECK constraints in the migration mirror the domain invariant
// 0 <= reserved_quantity <= quantity.
type StockPlacementModel struct {
	AggregateModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_placement_batch,priority:1;index:idx_placement_location,priority:1"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_placement_batch,priority:2;index:idx_placement_location,priority:2"`
	LocationID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_placement_batch,priority:3;index:idx_placement_location,priority:3"`
	BatchNumber      string          `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_placement_batch,priority:4"`
	Quantity         int64           `gorm:"not null;default:0"`
	ReservedQuantity int64           `gorm:"not null;default:0"`
	MinStockLevel    int64           `gorm:"not null;default:0"`
	MaxStockLevel    int64           `gorm:"not null;default:1000"`
	StorageType      string          `gorm:"type:varchar(20);not null;default:'shelf'"`
	Category         string          `gorm:"type:varchar(100)"`
	Weight           decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	ExpiryDate       *time.Time      `gorm:"type:date;index"`
}

// TableName returns the table name for GORM
func (StockPlacementModel) TableName() string {
	return "stock_placements"
}

// ToDomain converts the persistence model to a domain StockPlacement entity
func (m *StockPlacementModel) ToDomain() *inventory.StockPlacement {
	return &inventory.StockPlacement{
		BaseAggregateRoot: m.Aggregate(),
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		LocationID:        m.LocationID,
		BatchNumber:       m.BatchNumber,
		Quantity:          m.Quantity,
		ReservedQuantity:  m.ReservedQuantity,
		PlacementAttributes: inventory.PlacementAttributes{
			MinStockLevel: m.MinStockLevel,
			MaxStockLevel: m.MaxStockLevel,
			StorageType:   inventory.StorageType(m.StorageType),
			Category:      m.Category,
			Weight:        m.Weight,
			ExpiryDate:    m.ExpiryDate,
		},
	}
}

// FromDomain populates the persistence model from a domain StockPlacement entity
func (m *StockPlacementModel) FromDomain(p *inventory.StockPlacement) {
	m.SetAggregate(p.BaseAggregateRoot)
	m.ProductID = p.ProductID
	m.WarehouseID = p.WarehouseID
	m.LocationID = p.LocationID
	m.BatchNumber = p.BatchNumber
	m.Quantity = p.Quantity
	m.ReservedQuantity = p.ReservedQuantity
	m.MinStockLevel = p.MinStockLevel
	m.MaxStockLevel = p.MaxStockLevel
	m.StorageType = string(p.StorageType)
	m.Category = p.Category
	m.Weight = p.Weight
	m.ExpiryDate = p.ExpiryDate
}

// StockPlacementModelFromDomain creates a new persistence model from a domain StockPlacement entity
func StockPlacementModelFromDomain(p *inventory.StockPlacement) *StockPlacementModel {
	m := &StockPlacementModel{}
	m.FromDomain(p)
	return m
}

// StockTransactionModel is the persistence model for ledger entries.
// Rows are only ever inserted; placement_id carries no foreign key so entries
// outlive a removed placement.
type StockTransactionModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	PlacementID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID `gorm:"type:uuid;not null"`
	LocationID      uuid.UUID `gorm:"type:uuid;not null"`
	TransactionType string    `gorm:"type:varchar(10);not null"`
	Quantity        int64     `gorm:"not null"`
	Reference       string    `gorm:"type:varchar(100)"`
	Note            string    `gorm:"type:text"`
	TransactionDate time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockTransactionModel) TableName() string {
	return "stock_transactions"
}

// ToDomain converts the persistence model to a domain StockTransaction
func (m *StockTransactionModel) ToDomain() *inventory.StockTransaction {
	return &inventory.StockTransaction{
		ID:              m.ID,
		PlacementID:     m.PlacementID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		LocationID:      m.LocationID,
		TransactionType: inventory.TransactionType(m.TransactionType),
		Quantity:        m.Quantity,
		Reference:       m.Reference,
		Note:            m.Note,
		TransactionDate: m.TransactionDate,
	}
}

// StockTransactionModelFromDomain creates a new persistence model from a domain StockTransaction
func StockTransactionModelFromDomain(t *inventory.StockTransaction) *StockTransactionModel {
	return &StockTransactionModel{
		ID:              t.ID,
		PlacementID:     t.PlacementID,
		ProductID:       t.ProductID,
		WarehouseID:     t.WarehouseID,
		LocationID:      t.LocationID,
		TransactionType: string(t.TransactionType),
		Quantity:        t.Quantity,
		Reference:       t.Reference,
		Note:            t.Note,
		TransactionDate: t.TransactionDate,
	}
}

// StockAuditModel is the persistence model for audit snapshots
type StockAuditModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	WarehouseID      uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_location,priority:1"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_location,priority:2"`
	LocationID       uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_location,priority:3"`
	RecordedQuantity int64     `gorm:"not null"`
	Note             string    `gorm:"type:text"`
	AuditDate        time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockAuditModel) TableName() string {
	return "stock_audits"
}

// ToDomain converts the persistence model to a domain StockAudit
func (m *StockAuditModel) ToDomain() *inventory.StockAudit {
	return &inventory.StockAudit{
		ID:               m.ID,
		WarehouseID:      m.WarehouseID,
		ProductID:        m.ProductID,
		LocationID:       m.LocationID,
		RecordedQuantity: m.RecordedQuantity,
		Note:             m.Note,
		AuditDate:        m.AuditDate,
	}
}

// StockAuditModelFromDomain creates a new persistence model from a domain StockAudit
func StockAuditModelFromDomain(a *inventory.StockAudit) *StockAuditModel {
	return &StockAuditModel{
		ID:               a.ID,
		WarehouseID:      a.WarehouseID,
		ProductID:        a.ProductID,
		LocationID:       a.LocationID,
		RecordedQuantity: a.RecordedQuantity,
		Note:             a.Note,
		AuditDate:        a.AuditDate,
	}
}
