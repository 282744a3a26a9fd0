package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/partner"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/domain/trade"
)

type CustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]partner.Customer
}

func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{customers: make(map[uuid.UUID]partner.Customer)}
}

func (r *CustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *CustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	return nil
}

// OrderRepo is an in-memory trade.OrderRepository
type OrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]trade.Order
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[uuid.UUID]trade.Order)}
}

func cloneOrder(o trade.Order) *trade.Order {
	o.ClearDomainEvents()
	o.Items = append([]trade.OrderItem(nil), o.Items...)
	return &o
}

func (r *OrderRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *OrderRepo) FindAll(_ context.Context, filter shared.Filter) ([]trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trade.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if v, ok := filter.Filters[trade.FilterStatus].(string); ok && string(o.Status) != v {
			continue
		}
		if v, ok := filter.Filters[trade.FilterCustomerID].(uuid.UUID); ok && o.CustomerID != v {
			continue
		}
		c := cloneOrder(o)
		c.Items = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (r *OrderRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	orders, err := r.FindAll(ctx, filter)
	return int64(len(orders)), err
}

func (r *OrderRepo) Create(_ context.Context, o *trade.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return shared.ErrAlreadyExists
	}
	r.orders[o.ID] = *cloneOrder(*o)
	return nil
}

func (r *OrderRepo) Save(_ context.Context, o *trade.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return shared.ErrNotFound
	}
	r.orders[o.ID] = *cloneOrder(*o)
	return nil
}

// Len returns the number of stored orders
func (r *OrderRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// POSRepo is an in-memory trade.POSTransactionRepository. Fail makes the next
// Create return the given error.
type POSRepo struct {
	mu   sync.Mutex
	txs  []trade.POSTransaction
	Fail error
}

func (r *POSRepo) Create(_ context.Context, tx *trade.POSTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		err := r.Fail
		r.Fail = nil
		return err
	}
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *POSRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]trade.POSTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.POSTransaction
	for _, tx := range r.txs {
		if tx.OrderID == orderID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// All returns every stored record
func (r *POSRepo) All() []trade.POSTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trade.POSTransaction(nil), r.txs...)
}
