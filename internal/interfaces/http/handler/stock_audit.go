package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/domain/inventory"
)

// AuditService records stock counts and compares them with the ledger
type AuditService interface {
	Snapshot(ctx context.Context, req inventoryapp.CreateAuditRequest) (*inventoryapp.AuditResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*inventoryapp.AuditResponse, error)
	List(ctx context.Context, filter inventoryapp.AuditListFilter) ([]inventoryapp.AuditResponse, int64, error)
	DetectDrift(ctx context.Context, filter inventoryapp.AuditListFilter) ([]inventory.DriftReport, error)
}

// StockAuditHandler handles stock count endpoints
type StockAuditHandler struct {
	BaseHandler
	audits AuditService
}

// NewStockAuditHandler creates a new StockAuditHandler
func NewStockAuditHandler(audits AuditService) *StockAuditHandler {
	return &StockAuditHandler{audits: audits}
}

// Create godoc
// @ID           createStockAudit
// @Summary      Record a stock count
// @Description  Stores the counted quantity at a location. Live stock is not changed.
// @Tags         stock-audits
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateAuditRequest true "Count"
// @Success      201 {object} APIResponse[inventoryapp.AuditResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /stock-audits [post]
func (h *StockAuditHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateAuditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	audit, err := h.audits.Snapshot(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, audit)
}

// List godoc
// @ID           listStockAudits
// @Summary      List stock counts
// @Tags         stock-audits
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID"
// @Param        product_id   query string false "Product ID"
// @Param        location_id  query string false "Location ID"
// @Param        page         query int    false "Page number" default(1)
// @Param        page_size    query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.AuditResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock-audits [get]
func (h *StockAuditHandler) List(c *gin.Context) {
	var filter inventoryapp.AuditListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	audits, total, err := h.audits.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := paging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, audits, total, page, pageSize)
}

// GetByID godoc
// @ID           getStockAudit
// @Summary      Get a stock count
// @Tags         stock-audits
// @Produce      json
// @Param        id path string true "Audit ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.AuditResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /stock-audits/{id} [get]
func (h *StockAuditHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	audit, err := h.audits.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

// Drift godoc
// @ID           getStockDrift
// @Summary      Report drift between counts and live stock
// @Description  Compares the latest count per product and location with the current placement quantities. A non-zero delta marks drift.
// @Tags         stock-audits
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID"
// @Param        product_id   query string false "Product ID"
// @Param        location_id  query string false "Location ID"
// @Success      200 {object} APIResponse[[]inventory.DriftReport]
// @Router       /stock-audits/drift [get]
func (h *StockAuditHandler) Drift(c *gin.Context) {
	var filter inventoryapp.AuditListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	reports, err := h.audits.DetectDrift(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if reports == nil {
		reports = []inventory.DriftReport{}
	}
	h.Success(c, reports)
}
