package trade

import (
	"time"

	"github.com/google/uuid"
)

// POSTransactionStatus is the verification state of a point-of-sale record
type POSTransactionStatus string

const (
	POSTransactionPending  POSTransactionStatus = "Pending"
	POSTransactionVerified POSTransactionStatus = "Verified"
)

// POSTransaction is the point-of-sale record written for a reserved order item
type POSTransaction struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	CustomerID      *uuid.UUID
	ProductID       uuid.UUID
	Barcode         string
	Quantity        int64
	TransactionDate time.Time
	POSTerminalID   string
	Status          POSTransactionStatus
}

// NewVerifiedPOSTransaction creates the record for a reserved item and links it
func NewVerifiedPOSTransaction(order *Order, item *OrderItem, barcode string) *POSTransaction {
	customerID := order.CustomerID
	tx := &POSTransaction{
		ID:              uuid.New(),
		OrderID:         order.ID,
		CustomerID:      &customerID,
		ProductID:       item.ProductID,
		Barcode:         barcode,
		Quantity:        item.Quantity,
		TransactionDate: time.Now(),
		POSTerminalID:   order.POSTerminalID,
		Status:          POSTransactionVerified,
	}
	item.POSTransactionID = &tx.ID
	return tx
}
