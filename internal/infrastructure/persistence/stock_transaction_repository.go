package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements the append-only ledger store using GORM
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// Create appends a transaction
func (r *GormStockTransactionRepository) Create(ctx context.Context, tx *inventory.StockTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockTransactionModelFromDomain(tx)).Error)
}

// FindByID finds a transaction by its ID
func (r *GormStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransaction, error) {
	var model models.StockTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists transactions, newest first unless the filter orders otherwise
func (r *GormStockTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockTransaction, error) {
	var rows []models.StockTransactionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockTransactionModel{}), filter)
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, StockTransactionSortFields, "transaction_date"))
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	txs := make([]inventory.StockTransaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, nil
}

// Count counts transactions matching the filter
func (r *GormStockTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockTransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// SumSigned returns Σ(INBOUND) - Σ(OUTBOUND) for a placement
func (r *GormStockTransactionRepository) SumSigned(ctx context.Context, placementID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.StockTransactionModel{}).
		Select("CAST(COALESCE(SUM(CASE WHEN transaction_type = ? THEN quantity ELSE -quantity END), 0) AS BIGINT)",
			string(inventory.TransactionTypeInbound)).
		Where("placement_id = ?", placementID).
		Row().Scan(&total)
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (r *GormStockTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterPlacementID:
			query = query.Where("placement_id = ?", value)
		case inventory.FilterProductID:
			query = query.Where("product_id = ?", value)
		case inventory.FilterWarehouseID:
			query = query.Where("warehouse_id = ?", value)
		case inventory.FilterTransactionType:
			query = query.Where("transaction_type = ?", value)
		case inventory.FilterFrom:
			query = query.Where("transaction_date >= ?", value)
		case inventory.FilterTo:
			query = query.Where("transaction_date <= ?", value)
		}
	}
	return query
}

// Ensure GormStockTransactionRepository implements TransactionRepository
var _ inventory.TransactionRepository = (*GormStockTransactionRepository)(nil)
