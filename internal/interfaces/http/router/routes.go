package router

import (
	"github.com/wims/backend/internal/interfaces/http/handler"
	"github.com/wims/backend/internal/interfaces/http/middleware"
)

var op = middleware.Operation

// Handlers bundles every resource handler mounted under the API prefix
type Handlers struct {
	Placements        *handler.PlacementHandler
	StockTransactions *handler.StockTransactionHandler
	StockAudits       *handler.StockAuditHandler
	Products          *handler.ProductHandler
	Orders            *handler.OrderHandler
	System            *handler.SystemHandler
}

// Groups returns one DomainGroup per resource. Nil handlers are skipped.
func (h Handlers) Groups() []*DomainGroup {
	var groups []*DomainGroup

	if p := h.Placements; p != nil {
		groups = append(groups, NewDomainGroup("placements", "/placements").
			POST("", op("create_placement"), p.Create).
			GET("", p.List).
			GET("/:id", p.GetByID).
			PUT("/:id", op("update_placement"), p.Update).
			DELETE("/:id", op("delete_placement"), p.Delete).
			POST("/:id/reserve", op("reserve"), p.Reserve).
			POST("/:id/release", op("release"), p.Release).
			GET("/:id/ledger", p.Ledger))
	}

	if t := h.StockTransactions; t != nil {
		groups = append(groups, NewDomainGroup("stock-transactions", "/stock-transactions").
			POST("", op("record_transaction"), t.Create).
			GET("", t.List))
	}

	if a := h.StockAudits; a != nil {
		// /drift is a static segment and wins over /:id
		groups = append(groups, NewDomainGroup("stock-audits", "/stock-audits").
			POST("", op("record_audit"), a.Create).
			GET("", a.List).
			GET("/drift", a.Drift).
			GET("/:id", a.GetByID))
	}

	if p := h.Products; p != nil {
		groups = append(groups, NewDomainGroup("products", "/products").
			GET("", p.List).
			GET("/:id", p.GetByID).
			GET("/:id/availability", p.Availability).
			POST("/:id/reconcile", op("reconcile_product"), p.Reconcile))
	}

	if o := h.Orders; o != nil {
		groups = append(groups, NewDomainGroup("orders", "/orders").
			POST("", op("create_order"), o.Create).
			GET("", o.List).
			GET("/:id", o.GetByID).
			PATCH("/:id/status", op("update_order_status"), o.UpdateStatus).
			POST("/:id/cancel", op("cancel_order"), o.Cancel))
	}

	if s := h.System; s != nil {
		groups = append(groups, NewDomainGroup("system", "/system").
			GET("/info", s.GetSystemInfo).
			GET("/reconcile", s.GetReconcileStatus).
			POST("/reconcile", op("reconcile"), s.TriggerReconcile))
	}

	return groups
}
