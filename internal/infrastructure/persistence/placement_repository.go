package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlacementRepository implements PlacementRepository using GORM.
// The *ForUpdate finders take row locks and must run inside a transaction.
type GormPlacementRepository struct {
	db *gorm.DB
}

// NewGormPlacementRepository creates a new GormPlacementRepository
func NewGormPlacementRepository(db *gorm.DB) *GormPlacementRepository {
	return &GormPlacementRepository{db: db}
}

// FindByID finds a placement by its ID
func (r *GormPlacementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockPlacement, error) {
	var model models.StockPlacementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a placement with SELECT ... FOR UPDATE
func (r *GormPlacementRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockPlacement, error) {
	var model models.StockPlacementModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAtLocation lists every placement of a product at a location in id order
func (r *GormPlacementRepository) FindAtLocation(ctx context.Context, productID, warehouseID, locationID uuid.UUID) ([]inventory.StockPlacement, error) {
	var rows []models.StockPlacementModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND location_id = ?", productID, warehouseID, locationID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return placementsToDomain(rows), nil
}

// ExistsForBatch reports whether the (product, warehouse, location, batch) tuple is taken
func (r *GormPlacementRepository) ExistsForBatch(ctx context.Context, productID, warehouseID, locationID uuid.UUID, batchNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockPlacementModel{}).
		Where("product_id = ? AND warehouse_id = ? AND location_id = ? AND batch_number = ?",
			productID, warehouseID, locationID, batchNumber).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// FindAll finds placements matching the filter
func (r *GormPlacementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockPlacement, error) {
	var rows []models.StockPlacementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockPlacementModel{}), filter)
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, PlacementSortFields, "created_at"))
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return placementsToDomain(rows), nil
}

// Count counts placements matching the filter
func (r *GormPlacementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockPlacementModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// SumQuantityByProduct returns the on-hand total across a product's placements
func (r *GormPlacementRepository) SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	return r.sum(ctx, "quantity", "product_id = ?", productID)
}

// SumReservedByProduct returns the reserved total across a product's placements
func (r *GormPlacementRepository) SumReservedByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	return r.sum(ctx, "reserved_quantity", "product_id = ?", productID)
}

// SumQuantityAt returns the on-hand total of a product at one location
func (r *GormPlacementRepository) SumQuantityAt(ctx context.Context, warehouseID, productID, locationID uuid.UUID) (int64, error) {
	return r.sum(ctx, "quantity",
		"warehouse_id = ? AND product_id = ? AND location_id = ?", warehouseID, productID, locationID)
}

func (r *GormPlacementRepository) sum(ctx context.Context, column, where string, args ...any) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.StockPlacementModel{}).
		Select("CAST(COALESCE(SUM("+column+"), 0) AS BIGINT)").
		Where(where, args...).
		Row().Scan(&total)
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// Create inserts a new placement
func (r *GormPlacementRepository) Create(ctx context.Context, placement *inventory.StockPlacement) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockPlacementModelFromDomain(placement)).Error)
}

// Save writes the placement's quantities, attributes and version
func (r *GormPlacementRepository) Save(ctx context.Context, placement *inventory.StockPlacement) error {
	m := models.StockPlacementModelFromDomain(placement)
	result := r.db.WithContext(ctx).
		Model(&models.StockPlacementModel{}).
		Where("id = ?", placement.ID).
		Updates(map[string]interface{}{
			"quantity":          m.Quantity,
			"reserved_quantity": m.ReservedQuantity,
			"min_stock_level":   m.MinStockLevel,
			"max_stock_level":   m.MaxStockLevel,
			"storage_type":      m.StorageType,
			"category":          m.Category,
			"weight":            m.Weight,
			"expiry_date":       m.ExpiryDate,
			"version":           m.Version,
			"updated_at":        m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a placement
func (r *GormPlacementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StockPlacementModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPlacementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterProductID:
			query = query.Where("product_id = ?", value)
		case inventory.FilterWarehouseID:
			query = query.Where("warehouse_id = ?", value)
		case inventory.FilterLocationID:
			query = query.Where("location_id = ?", value)
		case inventory.FilterBelowMinimum:
			if value == true {
				query = query.Where("min_stock_level > 0 AND quantity < min_stock_level")
			}
		}
	}
	return query
}

func placementsToDomain(rows []models.StockPlacementModel) []inventory.StockPlacement {
	placements := make([]inventory.StockPlacement, len(rows))
	for i := range rows {
		placements[i] = *rows[i].ToDomain()
	}
	return placements
}

// Ensure GormPlacementRepository implements PlacementRepository
var _ inventory.PlacementRepository = (*GormPlacementRepository)(nil)
