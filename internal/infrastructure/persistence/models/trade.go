package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderDate     time.Time       `gorm:"not null;index"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	POSProcessed  bool            `gorm:"not null;default:false"`
	POSTerminalID string          `gorm:"type:varchar(50);not null;default:'POS_DEFAULT'"`
	ReservedAt    *time.Time
	FulfilledAt   *time.Time
	Items         []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseAggregateRoot: m.Aggregate(),
		CustomerID:        m.CustomerID,
		OrderDate:         m.OrderDate,
		Status:            trade.OrderStatus(m.Status),
		TotalPrice:        m.TotalPrice,
		POSProcessed:      m.POSProcessed,
		POSTerminalID:     m.POSTerminalID,
		ReservedAt:        m.ReservedAt,
		FulfilledAt:       m.FulfilledAt,
		Items:             make([]trade.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.SetAggregate(o.BaseAggregateRoot)
	m.CustomerID = o.CustomerID
	m.OrderDate = o.OrderDate
	m.Status = string(o.Status)
	m.TotalPrice = o.TotalPrice
	m.POSProcessed = o.POSProcessed
	m.POSTerminalID = o.POSTerminalID
	m.ReservedAt = o.ReservedAt
	m.FulfilledAt = o.FulfilledAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for order lines.
// pos_transaction_id has no foreign key: the POS record references the order
// and is inserted after it.
type OrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null"`
	LocationID       uuid.UUID       `gorm:"type:uuid;not null"`
	PlacementID      *uuid.UUID      `gorm:"type:uuid"`
	Quantity         int64           `gorm:"not null"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	POSTransactionID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		ProductID:        m.ProductID,
		WarehouseID:      m.WarehouseID,
		LocationID:       m.LocationID,
		PlacementID:      m.PlacementID,
		Quantity:         m.Quantity,
		Price:            m.Price,
		POSTransactionID: m.POSTransactionID,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain OrderItem
func OrderItemModelFromDomain(i *trade.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:               i.ID,
		OrderID:          i.OrderID,
		ProductID:        i.ProductID,
		WarehouseID:      i.WarehouseID,
		LocationID:       i.LocationID,
		PlacementID:      i.PlacementID,
		Quantity:         i.Quantity,
		Price:            i.Price,
		POSTransactionID: i.POSTransactionID,
	}
}

// POSTransactionModel is the persistence model for point-of-sale records
type POSTransactionModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID      *uuid.UUID `gorm:"type:uuid"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null"`
	Barcode         string     `gorm:"type:varchar(50);not null"`
	Quantity        int64      `gorm:"not null"`
	TransactionDate time.Time  `gorm:"not null"`
	POSTerminalID   string     `gorm:"type:varchar(50);not null"`
	Status          string     `gorm:"type:varchar(10);not null;default:'Pending'"`
}

// TableName returns the table name for GORM
func (POSTransactionModel) TableName() string {
	return "pos_transactions"
}

// ToDomain converts the persistence model to a domain POSTransaction
func (m *POSTransactionModel) ToDomain() *trade.POSTransaction {
	return &trade.POSTransaction{
		ID:              m.ID,
		OrderID:         m.OrderID,
		CustomerID:      m.CustomerID,
		ProductID:       m.ProductID,
		Barcode:         m.Barcode,
		Quantity:        m.Quantity,
		TransactionDate: m.TransactionDate,
		POSTerminalID:   m.POSTerminalID,
		Status:          trade.POSTransactionStatus(m.Status),
	}
}

// POSTransactionModelFromDomain creates a persistence model from a domain POSTransaction
func POSTransactionModelFromDomain(t *trade.POSTransaction) *POSTransactionModel {
	return &POSTransactionModel{
		ID:              t.ID,
		OrderID:         t.OrderID,
		CustomerID:      t.CustomerID,
		ProductID:       t.ProductID,
		Barcode:         t.Barcode,
		Quantity:        t.Quantity,
		TransactionDate: t.TransactionDate,
		POSTerminalID:   t.POSTerminalID,
		Status:          string(t.Status),
	}
}

// AllModels lists every model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&WarehouseModel{},
		&WarehouseLocationModel{},
		&ProductModel{},
		&CustomerModel{},
		&StockPlacementModel{},
		&StockTransactionModel{},
		&StockAuditModel{},
		&OrderModel{},
		&OrderItemModel{},
		&POSTransactionModel{},
	}
}
