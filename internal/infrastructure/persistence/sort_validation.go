package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY expression. The id tiebreaker
// keeps pagination stable when the sort column has duplicates.
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir) + ", id ASC"
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"price":      true,
	"quantity":   true,
}

// PlacementSortFields contains allowed sort fields for stock placements
var PlacementSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"quantity":          true,
	"reserved_quantity": true,
	"min_stock_level":   true,
	"expiry_date":       true,
	"batch_number":      true,
}

// StockTransactionSortFields contains allowed sort fields for ledger entries
var StockTransactionSortFields = map[string]bool{
	"id":               true,
	"transaction_date": true,
	"transaction_type": true,
	"quantity":         true,
}

// StockAuditSortFields contains allowed sort fields for audit snapshots
var StockAuditSortFields = map[string]bool{
	"id":                true,
	"audit_date":        true,
	"recorded_quantity": true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"order_date":  true,
	"status":      true,
	"total_price": true,
}
