package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
)

// PlacementResponse represents a stock placement in API responses
type PlacementResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	LocationID       uuid.UUID       `json:"location_id"`
	BatchNumber      string          `json:"batch_number"`
	Quantity         int64           `json:"quantity"`
	ReservedQuantity int64           `json:"reserved_quantity"`
	Available        int64           `json:"available_quantity"`
	MinStockLevel    int64           `json:"min_stock_level"`
	MaxStockLevel    int64           `json:"max_stock_level"`
	StorageType      string          `json:"storage_type"`
	Category         string          `json:"category,omitempty"`
	Weight           decimal.Decimal `json:"weight"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	IsBelowMinimum   bool            `json:"is_below_minimum"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// PlacementListFilter represents filter options for the placement list
type PlacementListFilter struct {
	ProductID    *uuid.UUID `form:"product_id"`
	WarehouseID  *uuid.UUID `form:"warehouse_id"`
	LocationID   *uuid.UUID `form:"location_id"`
	BelowMinimum *bool      `form:"below_min"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreatePlacementRequest represents a request to create a placement, optionally
// with an opening movement
type CreatePlacementRequest struct {
	ProductID       uuid.UUID        `json:"product_id" binding:"required"`
	WarehouseID     uuid.UUID        `json:"warehouse_id" binding:"required"`
	LocationID      uuid.UUID        `json:"location_id" binding:"required"`
	BatchNumber     string           `json:"batch_number" binding:"max=50"`
	Quantity        int64            `json:"quantity" binding:"min=0"`
	TransactionType string           `json:"transaction_type" binding:"omitempty,oneof=INBOUND OUTBOUND"`
	MinStockLevel   *int64           `json:"min_stock_level" binding:"omitempty,min=0"`
	MaxStockLevel   *int64           `json:"max_stock_level" binding:"omitempty,min=0"`
	StorageType     string           `json:"storage_type" binding:"omitempty,oneof=shelf rack cold_storage pallet"`
	Category        string           `json:"category" binding:"max=100"`
	Weight          *decimal.Decimal `json:"weight"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	Reference       string           `json:"reference" binding:"max=100"`
}

// UpdatePlacementRequest updates descriptive fields and may carry a movement
type UpdatePlacementRequest struct {
	MinStockLevel   *int64           `json:"min_stock_level" binding:"omitempty,min=0"`
	MaxStockLevel   *int64           `json:"max_stock_level" binding:"omitempty,min=0"`
	StorageType     *string          `json:"storage_type" binding:"omitempty,oneof=shelf rack cold_storage pallet"`
	Category        *string          `json:"category" binding:"omitempty,max=100"`
	Weight          *decimal.Decimal `json:"weight"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	TransactionType string           `json:"transaction_type" binding:"omitempty,oneof=INBOUND OUTBOUND"`
	Quantity        int64            `json:"quantity" binding:"min=0"`
	Reference       string           `json:"reference" binding:"max=100"`
}

// QuantityRequest carries the quantity of a direct reserve or release
type QuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// RecordTransactionRequest represents a manual INBOUND/OUTBOUND movement
type RecordTransactionRequest struct {
	PlacementID     uuid.UUID `json:"placement_id" binding:"required"`
	TransactionType string    `json:"transaction_type" binding:"required,oneof=INBOUND OUTBOUND"`
	Quantity        int64     `json:"quantity" binding:"required,min=1"`
	Reference       string    `json:"reference" binding:"max=100"`
	Note            string    `json:"note" binding:"max=500"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID              uuid.UUID `json:"id"`
	PlacementID     uuid.UUID `json:"placement_id"`
	ProductID       uuid.UUID `json:"product_id"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	LocationID      uuid.UUID `json:"location_id"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int64     `json:"quantity"`
	Reference       string    `json:"reference,omitempty"`
	Note            string    `json:"note,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
}

// TransactionListFilter represents filter options for the ledger list
type TransactionListFilter struct {
	PlacementID     *uuid.UUID `form:"placement_id"`
	ProductID       *uuid.UUID `form:"product_id"`
	TransactionType string     `form:"transaction_type" binding:"omitempty,oneof=INBOUND OUTBOUND"`
	From            *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To              *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LedgerBalanceResponse compares a placement's history with its live quantity
type LedgerBalanceResponse struct {
	PlacementID uuid.UUID `json:"placement_id"`
	LedgerSum   int64     `json:"ledger_sum"`
	Quantity    int64     `json:"quantity"`
	Reconciles  bool      `json:"reconciles"`
}

// CreateAuditRequest represents a counted quantity to record
type CreateAuditRequest struct {
	WarehouseID      uuid.UUID `json:"warehouse_id" binding:"required"`
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	LocationID       uuid.UUID `json:"location_id" binding:"required"`
	RecordedQuantity *int64    `json:"recorded_quantity" binding:"required,min=0"`
	Note             string    `json:"note" binding:"max=500"`
}

// AuditResponse represents an audit snapshot in API responses
type AuditResponse struct {
	ID               uuid.UUID `json:"id"`
	WarehouseID      uuid.UUID `json:"warehouse_id"`
	ProductID        uuid.UUID `json:"product_id"`
	LocationID       uuid.UUID `json:"location_id"`
	RecordedQuantity int64     `json:"recorded_quantity"`
	Note             string    `json:"note,omitempty"`
	AuditDate        time.Time `json:"audit_date"`
}

// AuditListFilter represents filter options for audits and drift detection
type AuditListFilter struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	ProductID   *uuid.UUID `form:"product_id"`
	LocationID  *uuid.UUID `form:"location_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AvailabilityResponse is the cached product total with its reserved share
type AvailabilityResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	Reserved  int64     `json:"reserved_quantity"`
	Available int64     `json:"available_quantity"`
}

// ReconcileResult compares the cached product total with its placements
type ReconcileResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Cached    int64     `json:"cached"`
	Computed  int64     `json:"computed"`
	Drift     int64     `json:"drift"`
	Repaired  bool      `json:"repaired"`
}

// ReconcileSummary aggregates a ReconcileAll run
type ReconcileSummary struct {
	Checked  int               `json:"checked"`
	Failed   int               `json:"failed"`
	Repaired int               `json:"repaired"`
	Drifted  []ReconcileResult `json:"drifted"`
}

// ToPlacementResponse converts a domain StockPlacement to PlacementResponse
func ToPlacementResponse(p *inventory.StockPlacement) PlacementResponse {
	return PlacementResponse{
		ID:               p.ID,
		ProductID:        p.ProductID,
		WarehouseID:      p.WarehouseID,
		LocationID:       p.LocationID,
		BatchNumber:      p.BatchNumber,
		Quantity:         p.Quantity,
		ReservedQuantity: p.ReservedQuantity,
		Available:        p.Available(),
		MinStockLevel:    p.MinStockLevel,
		MaxStockLevel:    p.MaxStockLevel,
		StorageType:      string(p.StorageType),
		Category:         p.Category,
		Weight:           p.Weight,
		ExpiryDate:       p.ExpiryDate,
		IsBelowMinimum:   p.IsBelowMinimum(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

// ToPlacementResponses converts a slice of placements
func ToPlacementResponses(items []inventory.StockPlacement) []PlacementResponse {
	responses := make([]PlacementResponse, len(items))
	for i := range items {
		responses[i] = ToPlacementResponse(&items[i])
	}
	return responses
}

// ToTransactionResponse converts a domain StockTransaction to TransactionResponse
func ToTransactionResponse(tx *inventory.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		PlacementID:     tx.PlacementID,
		ProductID:       tx.ProductID,
		WarehouseID:     tx.WarehouseID,
		LocationID:      tx.LocationID,
		TransactionType: tx.TransactionType.String(),
		Quantity:        tx.Quantity,
		Reference:       tx.Reference,
		Note:            tx.Note,
		TransactionDate: tx.TransactionDate,
	}
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(txs []inventory.StockTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}

// ToAuditResponse converts a domain StockAudit to AuditResponse
func ToAuditResponse(a *inventory.StockAudit) AuditResponse {
	return AuditResponse{
		ID:               a.ID,
		WarehouseID:      a.WarehouseID,
		ProductID:        a.ProductID,
		LocationID:       a.LocationID,
		RecordedQuantity: a.RecordedQuantity,
		Note:             a.Note,
		AuditDate:        a.AuditDate,
	}
}

// ToAuditResponses converts a slice of audits
func ToAuditResponses(audits []inventory.StockAudit) []AuditResponse {
	responses := make([]AuditResponse, len(audits))
	for i := range audits {
		responses[i] = ToAuditResponse(&audits[i])
	}
	return responses
}

func (f PlacementListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.ProductID != nil {
		filter.Filters[inventory.FilterProductID] = *f.ProductID
	}
	if f.WarehouseID != nil {
		filter.Filters[inventory.FilterWarehouseID] = *f.WarehouseID
	}
	if f.LocationID != nil {
		filter.Filters[inventory.FilterLocationID] = *f.LocationID
	}
	if f.BelowMinimum != nil && *f.BelowMinimum {
		filter.Filters[inventory.FilterBelowMinimum] = true
	}
	return filter.Normalize()
}

func (f TransactionListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  "transaction_date",
		Filters:  make(map[string]interface{}),
	}
	if f.PlacementID != nil {
		filter.Filters[inventory.FilterPlacementID] = *f.PlacementID
	}
	if f.ProductID != nil {
		filter.Filters[inventory.FilterProductID] = *f.ProductID
	}
	if f.TransactionType != "" {
		filter.Filters[inventory.FilterTransactionType] = f.TransactionType
	}
	if f.From != nil {
		filter.Filters[inventory.FilterFrom] = *f.From
	}
	if f.To != nil {
		filter.Filters[inventory.FilterTo] = *f.To
	}
	return filter.Normalize()
}

func (f AuditListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  "audit_date",
		Filters:  make(map[string]interface{}),
	}
	if f.WarehouseID != nil {
		filter.Filters[inventory.FilterWarehouseID] = *f.WarehouseID
	}
	if f.ProductID != nil {
		filter.Filters[inventory.FilterProductID] = *f.ProductID
	}
	if f.LocationID != nil {
		filter.Filters[inventory.FilterLocationID] = *f.LocationID
	}
	return filter.Normalize()
}
