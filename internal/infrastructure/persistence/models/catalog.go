package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
// Quantity is the cached on-hand total maintained by the ledger.
type ProductModel struct {
	AggregateModel
	SKU         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Barcode     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	UnitType    string          `gorm:"type:varchar(10);not null;default:'single'"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Weight      decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	Quantity    int64           `gorm:"not null;default:0"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.Aggregate(),
		SKU:               m.SKU,
		Barcode:           m.Barcode,
		Name:              m.Name,
		Description:       m.Description,
		UnitType:          catalog.UnitType(m.UnitType),
		Price:             m.Price,
		Weight:            m.Weight,
		Quantity:          m.Quantity,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Product entity
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.SetAggregate(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Barcode = p.Barcode
	m.Name = p.Name
	m.Description = p.Description
	m.UnitType = string(p.UnitType)
	m.Price = p.Price
	m.Weight = p.Weight
	m.Quantity = p.Quantity
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// WarehouseModel is the persistence model for warehouses
type WarehouseModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse entity
func (m *WarehouseModel) ToDomain() *catalog.Warehouse {
	return &catalog.Warehouse{
		BaseEntity: m.BaseModel.Entity(),
		Name:       m.Name,
		Address:    m.Address,
	}
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse entity
func WarehouseModelFromDomain(w *catalog.Warehouse) *WarehouseModel {
	m := &WarehouseModel{Name: w.Name, Address: w.Address}
	m.SetEntity(w.BaseEntity)
	return m
}

// WarehouseLocationModel is the persistence model for warehouse sections
type WarehouseLocationModel struct {
	BaseModel
	WarehouseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_warehouse_section,priority:1"`
	SectionName   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_location_warehouse_section,priority:2"`
	StorageType   string    `gorm:"type:varchar(20);not null"`
	CapacityClass string    `gorm:"type:varchar(10);not null"`
	MaxCapacity   int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WarehouseLocationModel) TableName() string {
	return "warehouse_locations"
}

// ToDomain converts the persistence model to a domain WarehouseLocation entity
func (m *WarehouseLocationModel) ToDomain() *catalog.WarehouseLocation {
	return &catalog.WarehouseLocation{
		BaseEntity:    m.BaseModel.Entity(),
		WarehouseID:   m.WarehouseID,
		SectionName:   m.SectionName,
		StorageType:   catalog.LocationStorageType(m.StorageType),
		CapacityClass: catalog.CapacityClass(m.CapacityClass),
		MaxCapacity:   m.MaxCapacity,
	}
}

// WarehouseLocationModelFromDomain creates a new persistence model from a domain WarehouseLocation entity
func WarehouseLocationModelFromDomain(l *catalog.WarehouseLocation) *WarehouseLocationModel {
	m := &WarehouseLocationModel{
		WarehouseID:   l.WarehouseID,
		SectionName:   l.SectionName,
		StorageType:   string(l.StorageType),
		CapacityClass: string(l.CapacityClass),
		MaxCapacity:   l.MaxCapacity,
	}
	m.SetEntity(l.BaseEntity)
	return m
}
