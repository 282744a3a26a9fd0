// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer carries no
// ORM tags; each model has ToDomain/FromDomain mappers used by the repositories.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: products, warehouses, warehouse locations
//   - partner.go: customers
//   - inventory.go: stock placements, the stock transaction ledger, stock audits
//   - trade.go: orders, order items, POS transactions
package models
