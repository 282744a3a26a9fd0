package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/wims/backend/internal/application/inventory"
)

// PlacementService is the stock ledger surface used by PlacementHandler
type PlacementService interface {
	GetPlacement(ctx context.Context, id uuid.UUID) (*inventoryapp.PlacementResponse, error)
	ListPlacements(ctx context.Context, filter inventoryapp.PlacementListFilter) ([]inventoryapp.PlacementResponse, int64, error)
	CreatePlacement(ctx context.Context, req inventoryapp.CreatePlacementRequest) (*inventoryapp.PlacementResponse, error)
	UpdatePlacement(ctx context.Context, id uuid.UUID, req inventoryapp.UpdatePlacementRequest) (*inventoryapp.PlacementResponse, error)
	DeletePlacement(ctx context.Context, id uuid.UUID) error
	Reserve(ctx context.Context, id uuid.UUID, qty int64) (*inventoryapp.PlacementResponse, error)
	Release(ctx context.Context, id uuid.UUID, qty int64) (*inventoryapp.PlacementResponse, error)
	LedgerBalance(ctx context.Context, id uuid.UUID) (*inventoryapp.LedgerBalanceResponse, error)
}

// PlacementHandler handles stock placement endpoints
type PlacementHandler struct {
	BaseHandler
	ledger PlacementService
}

// NewPlacementHandler creates a new PlacementHandler
func NewPlacementHandler(ledger PlacementService) *PlacementHandler {
	return &PlacementHandler{ledger: ledger}
}

// Create godoc
// @ID           createPlacement
// @Summary      Create a stock placement
// @Description  Registers a product batch at a warehouse location. A non-zero quantity is booked as the opening INBOUND movement.
// @Tags         placements
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreatePlacementRequest true "Placement"
// @Success      201 {object} APIResponse[inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /placements [post]
func (h *PlacementHandler) Create(c *gin.Context) {
	var req inventoryapp.CreatePlacementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	placement, err := h.ledger.CreatePlacement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, placement)
}

// List godoc
// @ID           listPlacements
// @Summary      List stock placements
// @Tags         placements
// @Produce      json
// @Param        product_id   query string false "Product ID"
// @Param        warehouse_id query string false "Warehouse ID"
// @Param        location_id  query string false "Location ID"
// @Param        below_min    query bool   false "Only placements under their minimum level"
// @Param        page         query int    false "Page number" default(1)
// @Param        page_size    query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /placements [get]
func (h *PlacementHandler) List(c *gin.Context) {
	var filter inventoryapp.PlacementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	placements, total, err := h.ledger.ListPlacements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := paging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, placements, total, page, pageSize)
}

// GetByID godoc
// @ID           getPlacement
// @Summary      Get a stock placement
// @Tags         placements
// @Produce      json
// @Param        id path string true "Placement ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /placements/{id} [get]
func (h *PlacementHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	placement, err := h.ledger.GetPlacement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, placement)
}

// Update godoc
// @ID           updatePlacement
// @Summary      Update a stock placement
// @Description  Updates descriptive fields. A transaction_type with a quantity is applied as a movement in the same transaction.
// @Tags         placements
// @Accept       json
// @Produce      json
// @Param        id      path string true "Placement ID" format(uuid)
// @Param        request body inventoryapp.UpdatePlacementRequest true "Changes"
// @Success      200 {object} APIResponse[inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /placements/{id} [put]
func (h *PlacementHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdatePlacementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	placement, err := h.ledger.UpdatePlacement(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, placement)
}

// Delete godoc
// @ID           deletePlacement
// @Summary      Delete a stock placement
// @Description  Removes the placement and subtracts its quantity from the product total. Refused while units are reserved.
// @Tags         placements
// @Param        id path string true "Placement ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /placements/{id} [delete]
func (h *PlacementHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeletePlacement(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reserve godoc
// @ID           reservePlacement
// @Summary      Reserve stock on a placement
// @Tags         placements
// @Accept       json
// @Produce      json
// @Param        id      path string true "Placement ID" format(uuid)
// @Param        request body inventoryapp.QuantityRequest true "Quantity"
// @Success      200 {object} APIResponse[inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse "validation or insufficient stock"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /placements/{id}/reserve [post]
func (h *PlacementHandler) Reserve(c *gin.Context) {
	h.moveReservation(c, h.ledger.Reserve)
}

// Release godoc
// @ID           releasePlacement
// @Summary      Release reserved stock on a placement
// @Tags         placements
// @Accept       json
// @Produce      json
// @Param        id      path string true "Placement ID" format(uuid)
// @Param        request body inventoryapp.QuantityRequest true "Quantity"
// @Success      200 {object} APIResponse[inventoryapp.PlacementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /placements/{id}/release [post]
func (h *PlacementHandler) Release(c *gin.Context) {
	h.moveReservation(c, h.ledger.Release)
}

func (h *PlacementHandler) moveReservation(c *gin.Context, op func(context.Context, uuid.UUID, int64) (*inventoryapp.PlacementResponse, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.QuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	placement, err := op(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, placement)
}

// Ledger godoc
// @ID           getPlacementLedger
// @Summary      Compare a placement with its transaction history
// @Tags         placements
// @Produce      json
// @Param        id path string true "Placement ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.LedgerBalanceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /placements/{id}/ledger [get]
func (h *PlacementHandler) Ledger(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	balance, err := h.ledger.LedgerBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
