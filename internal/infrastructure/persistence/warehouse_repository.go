package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *catalog.Warehouse) error {
	return translateError(r.db.WithContext(ctx).Save(models.WarehouseModelFromDomain(warehouse)).Error)
}

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.WarehouseLocation, error) {
	var model models.WarehouseLocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByWarehouse lists the sections of a warehouse by name
func (r *GormLocationRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]catalog.WarehouseLocation, error) {
	var rows []models.WarehouseLocationModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("section_name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	locations := make([]catalog.WarehouseLocation, len(rows))
	for i := range rows {
		locations[i] = *rows[i].ToDomain()
	}
	return locations, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, location *catalog.WarehouseLocation) error {
	return translateError(r.db.WithContext(ctx).Save(models.WarehouseLocationModelFromDomain(location)).Error)
}

var (
	_ catalog.WarehouseRepository = (*GormWarehouseRepository)(nil)
	_ catalog.LocationRepository  = (*GormLocationRepository)(nil)
)
