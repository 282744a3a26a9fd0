package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
)

// ==================== Order DTOs ====================

// CreateOrderRequest represents a request to create and reserve an order
type CreateOrderRequest struct {
	CustomerID    uuid.UUID              `json:"customer_id" binding:"required"`
	POSTerminalID string                 `json:"pos_terminal_id" binding:"max=50"`
	Items         []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	LocationID  uuid.UUID `json:"location_id" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,min=1"`
}

// UpdateOrderStatusRequest represents a status transition request
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Processing Reserved Picked Packed Shipped Delivered Cancelled"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=Received Processing Reserved Picked Packed Shipped Delivered Cancelled"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an order with its items in API responses
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	OrderDate     time.Time           `json:"order_date"`
	Status        string              `json:"status"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	POSProcessed  bool                `json:"pos_processed"`
	POSTerminalID string              `json:"pos_terminal_id"`
	ReservedAt    *time.Time          `json:"reserved_at,omitempty"`
	FulfilledAt   *time.Time          `json:"fulfilled_at,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Version       int                 `json:"version"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	LocationID       uuid.UUID       `json:"location_id"`
	PlacementID      *uuid.UUID      `json:"placement_id,omitempty"`
	Quantity         int64           `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	POSTransactionID *uuid.UUID      `json:"pos_transaction_id,omitempty"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	OrderDate    time.Time       `json:"order_date"`
	Status       string          `json:"status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	POSProcessed bool            `json:"pos_processed"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			WarehouseID:      item.WarehouseID,
			LocationID:       item.LocationID,
			PlacementID:      item.PlacementID,
			Quantity:         item.Quantity,
			Price:            item.Price,
			POSTransactionID: item.POSTransactionID,
		}
	}
	return OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		OrderDate:     o.OrderDate,
		Status:        o.Status.String(),
		TotalPrice:    o.TotalPrice,
		POSProcessed:  o.POSProcessed,
		POSTerminalID: o.POSTerminalID,
		ReservedAt:    o.ReservedAt,
		FulfilledAt:   o.FulfilledAt,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Version:       o.Version,
	}
}

// ToOrderListItemResponses converts orders for list responses
func ToOrderListItemResponses(orders []trade.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i, o := range orders {
		responses[i] = OrderListItemResponse{
			ID:           o.ID,
			CustomerID:   o.CustomerID,
			OrderDate:    o.OrderDate,
			Status:       o.Status.String(),
			TotalPrice:   o.TotalPrice,
			POSProcessed: o.POSProcessed,
			UpdatedAt:    o.UpdatedAt,
		}
	}
	return responses
}

func (f OrderListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.Status != "" {
		filter.Filters[trade.FilterStatus] = f.Status
	}
	if f.CustomerID != nil {
		filter.Filters[trade.FilterCustomerID] = *f.CustomerID
	}
	return filter.Normalize()
}
