package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/wims/backend/internal/application/catalog"
	inventoryapp "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/interfaces/http/dto"
)

// ProductReader is the read-only catalog surface
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, filter catalogapp.ProductListFilter) ([]catalogapp.ProductResponse, int64, error)
}

// QuantityProjection reads and repairs the cached product quantity
type QuantityProjection interface {
	Available(ctx context.Context, productID uuid.UUID) (*inventoryapp.AvailabilityResponse, error)
	Reconcile(ctx context.Context, productID uuid.UUID, repair bool) (*inventoryapp.ReconcileResult, error)
}

// ProductHandler handles product catalog and availability endpoints
type ProductHandler struct {
	BaseHandler
	products   ProductReader
	projection QuantityProjection
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductReader, projection QuantityProjection) *ProductHandler {
	return &ProductHandler{
		products:   products,
		projection: projection,
	}
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Description  Lists catalog products with their cached on-hand quantity
// @Tags         products
// @Produce      json
// @Param        search    query string false "SKU, barcode or name"
// @Param        is_active query bool   false "Active flag"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20) maximum(100)
// @Param        order_by  query string false "sku, name, price, quantity or created_at"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} APIResponse[[]catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := paging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// GetByID godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Availability godoc
// @ID           getProductAvailability
// @Summary      Get product availability
// @Description  Returns the cached quantity together with its reserved and available shares
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.AvailabilityResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id}/availability [get]
func (h *ProductHandler) Availability(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	availability, err := h.projection.Available(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// Reconcile godoc
// @ID           reconcileProduct
// @Summary      Reconcile the cached product quantity
// @Description  Recomputes the quantity from the product's placements. With repair=true a drifting cache is overwritten.
// @Tags         products
// @Produce      json
// @Param        id     path  string true  "Product ID" format(uuid)
// @Param        repair query bool   false "Overwrite the cache on drift"
// @Success      200 {object} APIResponse[inventoryapp.ReconcileResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /products/{id}/reconcile [post]
func (h *ProductHandler) Reconcile(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	repair := false
	if raw := c.Query("repair"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.ValidationError(c, []dto.FieldDetail{{
				Field:   "repair",
				Message: "Must be true or false",
				Code:    dto.ErrCodeValidationFormat,
			}})
			return
		}
		repair = v
	}

	result, err := h.projection.Reconcile(c.Request.Context(), id, repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
