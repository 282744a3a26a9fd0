package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockAuditRepository implements AuditRepository using GORM
type GormStockAuditRepository struct {
	db *gorm.DB
}

// NewGormStockAuditRepository creates a new GormStockAuditRepository
func NewGormStockAuditRepository(db *gorm.DB) *GormStockAuditRepository {
	return &GormStockAuditRepository{db: db}
}

// Create appends a snapshot
func (r *GormStockAuditRepository) Create(ctx context.Context, audit *inventory.StockAudit) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockAuditModelFromDomain(audit)).Error)
}

// FindByID finds a snapshot by its ID
func (r *GormStockAuditRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockAudit, error) {
	var model models.StockAuditModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists snapshots, newest first
func (r *GormStockAuditRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockAudit, error) {
	var rows []models.StockAuditModel
	query := applyAuditFilter(r.db.WithContext(ctx).Model(&models.StockAuditModel{}), "", filter)
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, StockAuditSortFields, "audit_date"))
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return auditsToDomain(rows), nil
}

// Count counts snapshots matching the filter
func (r *GormStockAuditRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyAuditFilter(r.db.WithContext(ctx).Model(&models.StockAuditModel{}), "", filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// FindLatestPerLocation returns the newest snapshot for each (warehouse, product, location).
// Ties on audit_date are broken by id so exactly one row survives per triple.
func (r *GormStockAuditRepository) FindLatestPerLocation(ctx context.Context, filter shared.Filter) ([]inventory.StockAudit, error) {
	var rows []models.StockAuditModel
	query := r.db.WithContext(ctx).Table("stock_audits AS a").Select("a.*").
		Where(`NOT EXISTS (
			SELECT 1 FROM stock_audits b
			WHERE b.warehouse_id = a.warehouse_id
			  AND b.product_id = a.product_id
			  AND b.location_id = a.location_id
			  AND (b.audit_date > a.audit_date OR (b.audit_date = a.audit_date AND b.id > a.id))
		)`)
	query = applyAuditFilter(query, "a.", filter)
	if err := query.Order("a.audit_date DESC, a.id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return auditsToDomain(rows), nil
}

func applyAuditFilter(query *gorm.DB, prefix string, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterWarehouseID:
			query = query.Where(prefix+"warehouse_id = ?", value)
		case inventory.FilterProductID:
			query = query.Where(prefix+"product_id = ?", value)
		case inventory.FilterLocationID:
			query = query.Where(prefix+"location_id = ?", value)
		}
	}
	return query
}

func auditsToDomain(rows []models.StockAuditModel) []inventory.StockAudit {
	audits := make([]inventory.StockAudit, len(rows))
	for i := range rows {
		audits[i] = *rows[i].ToDomain()
	}
	return audits
}

// Ensure GormStockAuditRepository implements AuditRepository
var _ inventory.AuditRepository = (*GormStockAuditRepository)(nil)
