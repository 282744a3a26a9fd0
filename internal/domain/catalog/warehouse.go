package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/shared"
)

// Warehouse is a physical site holding stock
type Warehouse struct {
	shared.BaseEntity
	Name    string
	Address string
}

// NewWarehouse creates a new warehouse
func NewWarehouse(name, address string) (*Warehouse, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewValidationError("name", "must be 1-100 characters")
	}
	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Address:    address,
	}, nil
}

// LocationStorageType is the kind of fixture a location provides
type LocationStorageType string

const (
	LocationShelf       LocationStorageType = "Shelf"
	LocationRack        LocationStorageType = "Rack"
	LocationColdStorage LocationStorageType = "Cold Storage"
)

// IsValid checks if the storage type is known
func (t LocationStorageType) IsValid() bool {
	switch t {
	case LocationShelf, LocationRack, LocationColdStorage:
		return true
	}
	return false
}

// CapacityClass is the coarse size of a location
type CapacityClass string

const (
	CapacitySmall  CapacityClass = "Small"
	CapacityMedium CapacityClass = "Medium"
	CapacityLarge  CapacityClass = "Large"
)

// IsValid checks if the capacity class is known
func (c CapacityClass) IsValid() bool {
	switch c {
	case CapacitySmall, CapacityMedium, CapacityLarge:
		return true
	}
	return false
}

// WarehouseLocation is a section inside a warehouse.
// SectionName is unique within its warehouse.
type WarehouseLocation struct {
	shared.BaseEntity
	WarehouseID   uuid.UUID
	SectionName   string
	StorageType   LocationStorageType
	CapacityClass CapacityClass
	MaxCapacity   int
}

// NewWarehouseLocation creates a new location in the given warehouse
func NewWarehouseLocation(warehouseID uuid.UUID, section string, storage LocationStorageType, capacity CapacityClass, maxCapacity int) (*WarehouseLocation, error) {
	verr := &shared.ValidationError{}
	if warehouseID == uuid.Nil {
		verr.Add("warehouse_id", "is required")
	}
	section = strings.TrimSpace(section)
	if section == "" || len(section) > 100 {
		verr.Add("section_name", "must be 1-100 characters")
	}
	if !storage.IsValid() {
		verr.Add("storage_type", "must be Shelf, Rack or Cold Storage")
	}
	if !capacity.IsValid() {
		verr.Add("capacity_class", "must be Small, Medium or Large")
	}
	if maxCapacity < 1 {
		verr.Add("max_capacity", "must be at least 1")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return &WarehouseLocation{
		BaseEntity:    shared.NewBaseEntity(),
		WarehouseID:   warehouseID,
		SectionName:   section,
		StorageType:   storage,
		CapacityClass: capacity,
		MaxCapacity:   maxCapacity,
	}, nil
}

// BelongsTo reports whether the location is inside the warehouse
func (l *WarehouseLocation) BelongsTo(warehouseID uuid.UUID) bool {
	return l.WarehouseID == warehouseID
}
