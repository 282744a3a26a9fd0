package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// TransactionType is the direction of a stock movement
type TransactionType string

const (
	// TransactionTypeInbound is stock arriving at a placement
	TransactionTypeInbound TransactionType = "INBOUND"
	// TransactionTypeOutbound is stock leaving a placement
	TransactionTypeOutbound TransactionType = "OUTBOUND"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeInbound || t == TransactionTypeOutbound
}

// Sign is +1 for INBOUND and -1 for OUTBOUND
func (t TransactionType) Sign() int64 {
	if t == TransactionTypeOutbound {
		return -1
	}
	return 1
}

// ParseTransactionType parses a case-insensitive transaction type; empty input
// yields def
func ParseTransactionType(s string, def TransactionType) (TransactionType, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewValidationError("transaction_type", "unknown transaction type "+s)
	}
	return t, nil
}

// StockTransaction is an immutable ledger entry. Product, warehouse and
// location are copied from the placement so history survives its removal.
type StockTransaction struct {
	ID              uuid.UUID
	PlacementID     uuid.UUID
	ProductID       uuid.UUID
	WarehouseID     uuid.UUID
	LocationID      uuid.UUID
	TransactionType TransactionType
	Quantity        int64
	Reference       string
	Note            string
	TransactionDate time.Time
}

// NewStockTransaction records a movement of qty units against a placement
func NewStockTransaction(p *StockPlacement, txType TransactionType, qty int64, reference, note string) (*StockTransaction, error) {
	if p == nil {
		return nil, shared.NewValidationError("placement_id", "is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewValidationError("transaction_type", "must be INBOUND or OUTBOUND")
	}
	if qty <= 0 {
		return nil, shared.NewValidationError("quantity", "must be greater than 0")
	}
	return &StockTransaction{
		ID:              uuid.New(),
		PlacementID:     p.ID,
		ProductID:       p.ProductID,
		WarehouseID:     p.WarehouseID,
		LocationID:      p.LocationID,
		TransactionType: txType,
		Quantity:        qty,
		Reference:       reference,
		Note:            note,
		TransactionDate: time.Now(),
	}, nil
}

// SignedQuantity returns Quantity with the direction applied
func (t *StockTransaction) SignedQuantity() int64 {
	return t.TransactionType.Sign() * t.Quantity
}
