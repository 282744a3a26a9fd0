package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
	"github.com/wims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.load(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads an order with its items, holding the order row lock
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.load(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormOrderRepository) load(query *gorm.DB, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := r.db.WithContext(query.Statement.Context).
		Where("order_id = ?", id).
		Order("product_id ASC, warehouse_id ASC, location_id ASC, id ASC").
		Find(&model.Items).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders without their items
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "order_date"))
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Create inserts an order and its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return translateError(err)
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Save updates the order header and upserts its items
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"total_price":     model.TotalPrice,
			"pos_processed":   model.POSProcessed,
			"pos_terminal_id": model.POSTerminalID,
			"reserved_at":     model.ReservedAt,
			"fulfilled_at":    model.FulfilledAt,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}

	for i := range model.Items {
		if err := db.Save(&model.Items[i]).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case trade.FilterStatus:
			query = query.Where("status = ?", value)
		case trade.FilterCustomerID:
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

// GormPOSTransactionRepository implements POSTransactionRepository using GORM
type GormPOSTransactionRepository struct {
	db *gorm.DB
}

// NewGormPOSTransactionRepository creates a new GormPOSTransactionRepository
func NewGormPOSTransactionRepository(db *gorm.DB) *GormPOSTransactionRepository {
	return &GormPOSTransactionRepository{db: db}
}

// Create inserts a POS record
func (r *GormPOSTransactionRepository) Create(ctx context.Context, tx *trade.POSTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(models.POSTransactionModelFromDomain(tx)).Error)
}

// FindByOrder lists the POS records of an order
func (r *GormPOSTransactionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.POSTransaction, error) {
	var rows []models.POSTransactionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("transaction_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	txs := make([]trade.POSTransaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, nil
}

var (
	_ trade.OrderRepository          = (*GormOrderRepository)(nil)
	_ trade.POSTransactionRepository = (*GormPOSTransactionRepository)(nil)
)
