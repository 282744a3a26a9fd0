package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/wims/backend/internal/application/inventory"
)

// TransactionService records and lists ledger movements
type TransactionService interface {
	RecordTransaction(ctx context.Context, req inventoryapp.RecordTransactionRequest) (*inventoryapp.TransactionResponse, error)
	ListTransactions(ctx context.Context, filter inventoryapp.TransactionListFilter) ([]inventoryapp.TransactionResponse, int64, error)
}

// StockTransactionHandler handles manual stock movements
type StockTransactionHandler struct {
	BaseHandler
	ledger TransactionService
}

// NewStockTransactionHandler creates a new StockTransactionHandler
func NewStockTransactionHandler(ledger TransactionService) *StockTransactionHandler {
	return &StockTransactionHandler{ledger: ledger}
}

// Create godoc
// @ID           createStockTransaction
// @Summary      Record a manual stock movement
// @Description  Applies an INBOUND or OUTBOUND movement to a placement and appends it to the ledger.
// @Tags         stock-transactions
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RecordTransactionRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse "validation or insufficient stock"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /stock-transactions [post]
func (h *StockTransactionHandler) Create(c *gin.Context) {
	var req inventoryapp.RecordTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.ledger.RecordTransaction(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// List godoc
// @ID           listStockTransactions
// @Summary      List ledger movements
// @Tags         stock-transactions
// @Produce      json
// @Param        placement_id     query string false "Placement ID"
// @Param        product_id       query string false "Product ID"
// @Param        transaction_type query string false "INBOUND or OUTBOUND"
// @Param        from             query string false "From (RFC3339)"
// @Param        to               query string false "To (RFC3339)"
// @Param        page             query int    false "Page number" default(1)
// @Param        page_size        query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock-transactions [get]
func (h *StockTransactionHandler) List(c *gin.Context) {
	var filter inventoryapp.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	txs, total, err := h.ledger.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := paging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, txs, total, page, pageSize)
}
