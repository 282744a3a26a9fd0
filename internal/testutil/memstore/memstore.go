// Package memstore holds in-memory repositories for service tests. Every read
// returns a copy so services only observe changes they saved.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
)

// PlacementRepo is an in-memory inventory.PlacementRepository
type PlacementRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]inventory.StockPlacement
	history map[uuid.UUID][]inventory.StockPlacement
}

func NewPlacementRepo() *PlacementRepo {
	return &PlacementRepo{
		items:   make(map[uuid.UUID]inventory.StockPlacement),
		history: make(map[uuid.UUID][]inventory.StockPlacement),
	}
}

func clonePlacement(p inventory.StockPlacement) *inventory.StockPlacement {
	p.ClearDomainEvents()
	return &p
}

func (r *PlacementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockPlacement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clonePlacement(p), nil
}

func (r *PlacementRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockPlacement, error) {
	return r.FindByID(ctx, id)
}

func (r *PlacementRepo) FindAtLocation(_ context.Context, productID, warehouseID, locationID uuid.UUID) ([]inventory.StockPlacement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockPlacement
	for _, p := range r.items {
		if p.ProductID == productID && p.WarehouseID == warehouseID && p.LocationID == locationID {
			out = append(out, *clonePlacement(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}

func (r *PlacementRepo) ExistsForBatch(_ context.Context, productID, warehouseID, locationID uuid.UUID, batch string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.ProductID == productID && p.WarehouseID == warehouseID && p.LocationID == locationID && p.BatchNumber == batch {
			return true, nil
		}
	}
	return false, nil
}

func (r *PlacementRepo) matches(p inventory.StockPlacement, filter shared.Filter) bool {
	if v, ok := filter.Filters[inventory.FilterProductID].(uuid.UUID); ok && p.ProductID != v {
		return false
	}
	if v, ok := filter.Filters[inventory.FilterWarehouseID].(uuid.UUID); ok && p.WarehouseID != v {
		return false
	}
	if v, ok := filter.Filters[inventory.FilterLocationID].(uuid.UUID); ok && p.LocationID != v {
		return false
	}
	if _, ok := filter.Filters[inventory.FilterBelowMinimum]; ok && !p.IsBelowMinimum() {
		return false
	}
	return true
}

func (r *PlacementRepo) FindAll(_ context.Context, filter shared.Filter) ([]inventory.StockPlacement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockPlacement, 0)
	for _, p := range r.items {
		if r.matches(p, filter) {
			out = append(out, *clonePlacement(p))
		}
	}
	return out, nil
}

func (r *PlacementRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	items, err := r.FindAll(ctx, filter)
	return int64(len(items)), err
}

func (r *PlacementRepo) SumQuantityByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.items {
		if p.ProductID == productID {
			sum += p.Quantity
		}
	}
	return sum, nil
}

func (r *PlacementRepo) SumReservedByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.items {
		if p.ProductID == productID {
			sum += p.ReservedQuantity
		}
	}
	return sum, nil
}

func (r *PlacementRepo) SumQuantityAt(_ context.Context, warehouseID, productID, locationID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.items {
		if p.ProductID == productID && p.WarehouseID == warehouseID && p.LocationID == locationID {
			sum += p.Quantity
		}
	}
	return sum, nil
}

func (r *PlacementRepo) Create(ctx context.Context, p *inventory.StockPlacement) error {
	return r.Save(ctx, p)
}

func (r *PlacementRepo) Save(_ context.Context, p *inventory.StockPlacement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := *clonePlacement(*p)
	r.items[p.ID] = saved
	r.history[p.ID] = append(r.history[p.ID], saved)
	return nil
}

func (r *PlacementRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// History returns every saved state of a placement, oldest first
func (r *PlacementRepo) History(id uuid.UUID) []inventory.StockPlacement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inventory.StockPlacement(nil), r.history[id]...)
}

// Get returns the stored placement for assertions
func (r *PlacementRepo) Get(id uuid.UUID) (inventory.StockPlacement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	return p, ok
}

type TransactionRepo struct {
	mu  sync.Mutex
	txs []inventory.StockTransaction
}

func (r *TransactionRepo) Create(_ context.Context, tx *inventory.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *TransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].ID == id {
			tx := r.txs[i]
			return &tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *TransactionRepo) FindAll(_ context.Context, filter shared.Filter) ([]inventory.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockTransaction, 0)
	for _, tx := range r.txs {
		if v, ok := filter.Filters[inventory.FilterPlacementID].(uuid.UUID); ok && tx.PlacementID != v {
			continue
		}
		if v, ok := filter.Filters[inventory.FilterTransactionType].(string); ok && string(tx.TransactionType) != v {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *TransactionRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	txs, err := r.FindAll(ctx, filter)
	return int64(len(txs)), err
}

func (r *TransactionRepo) SumSigned(_ context.Context, placementID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for i := range r.txs {
		if r.txs[i].PlacementID == placementID {
			sum += r.txs[i].SignedQuantity()
		}
	}
	return sum, nil
}

func (r *TransactionRepo) All() []inventory.StockTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inventory.StockTransaction(nil), r.txs...)
}

type AuditRepo struct {
	mu     sync.Mutex
	audits []inventory.StockAudit
}

func (r *AuditRepo) Create(_ context.Context, a *inventory.StockAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, *a)
	return nil
}

func (r *AuditRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.audits {
		if r.audits[i].ID == id {
			a := r.audits[i]
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *AuditRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.StockAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inventory.StockAudit(nil), r.audits...), nil
}

func (r *AuditRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.audits)), nil
}

func (r *AuditRepo) FindLatestPerLocation(_ context.Context, _ shared.Filter) ([]inventory.StockAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type triple struct{ w, p, l uuid.UUID }
	latest := make(map[triple]inventory.StockAudit)
	for _, a := range r.audits {
		k := triple{a.WarehouseID, a.ProductID, a.LocationID}
		if cur, ok := latest[k]; !ok || a.AuditDate.After(cur.AuditDate) {
			latest[k] = a
		}
	}
	out := make([]inventory.StockAudit, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	return out, nil
}

type ProductRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]catalog.Product
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{items: make(map[uuid.UUID]catalog.Product)}
}

func (r *ProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p.ClearDomainEvents()
	return &p, nil
}

func (r *ProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, err := r.FindByID(ctx, id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *ProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *ProductRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *ProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	stored.ClearDomainEvents()
	r.items[p.ID] = stored
	return nil
}

func (r *ProductRepo) Quantity(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Quantity
}

type WarehouseRepo struct {
	mu         sync.Mutex
	warehouses map[uuid.UUID]catalog.Warehouse
}

func NewWarehouseRepo() *WarehouseRepo {
	return &WarehouseRepo{warehouses: make(map[uuid.UUID]catalog.Warehouse)}
}

func (r *WarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &w, nil
}

func (r *WarehouseRepo) Save(_ context.Context, w *catalog.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warehouses[w.ID] = *w
	return nil
}

type LocationRepo struct {
	mu        sync.Mutex
	locations map[uuid.UUID]catalog.WarehouseLocation
}

func NewLocationRepo() *LocationRepo {
	return &LocationRepo{locations: make(map[uuid.UUID]catalog.WarehouseLocation)}
}

func (r *LocationRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.WarehouseLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r *LocationRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]catalog.WarehouseLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.WarehouseLocation
	for _, l := range r.locations {
		if l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LocationRepo) Save(_ context.Context, l *catalog.WarehouseLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[l.ID] = *l
	return nil
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *RecordingPublisher) OfType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
