package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
)

// Mutation is the outcome of one ledger operation
type Mutation struct {
	Placement   *inventory.StockPlacement
	Transaction *inventory.StockTransaction
	Product     *catalog.Product
}

// Events returns the pending domain events of every touched aggregate
func (m *Mutation) Events() []shared.DomainEvent {
	var events []shared.DomainEvent
	if m.Placement != nil {
		events = append(events, m.Placement.GetDomainEvents()...)
		m.Placement.ClearDomainEvents()
	}
	if m.Product != nil {
		events = append(events, m.Product.GetDomainEvents()...)
		m.Product.ClearDomainEvents()
	}
	return events
}

// AdjustCommand describes an INBOUND/OUTBOUND movement
type AdjustCommand struct {
	PlacementID uuid.UUID
	Type        inventory.TransactionType
	Quantity    int64
	Reference   string
	Note        string
}

// Ledger performs the check-then-act sequence of every stock mutation.
// Each method must be called inside a TransactionScope; it takes the
// placement lock (and the product lock when the aggregate moves) through the
// scope before reading state, so the locks are held until commit.
type Ledger struct {
	projection *QuantityProjection
}

// NewLedger creates a Ledger
func NewLedger(projection *QuantityProjection) *Ledger {
	return &Ledger{projection: projection}
}

// LockPlacement takes the placement lock and loads the row for update
func (l *Ledger) LockPlacement(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*inventory.StockPlacement, error) {
	if err := repos.Locks().Lock(ctx, shared.PlacementKey(id)); err != nil {
		return nil, err
	}
	return repos.PlacementRepo().FindByIDForUpdate(ctx, id)
}

// Reserve commits qty units of a placement. The product aggregate is not touched.
func (l *Ledger) Reserve(ctx context.Context, repos TransactionalRepositories, placementID uuid.UUID, qty int64) (*Mutation, error) {
	p, err := l.LockPlacement(ctx, repos, placementID)
	if err != nil {
		return nil, err
	}
	return l.ReserveLocked(ctx, repos, p, qty)
}

// ReserveLocked reserves on a placement the caller already locked
func (l *Ledger) ReserveLocked(ctx context.Context, repos TransactionalRepositories, p *inventory.StockPlacement, qty int64) (*Mutation, error) {
	if err := p.Reserve(qty); err != nil {
		return nil, err
	}
	if err := repos.PlacementRepo().Save(ctx, p); err != nil {
		return nil, err
	}
	return &Mutation{Placement: p}, nil
}

// Release gives back qty reserved units
func (l *Ledger) Release(ctx context.Context, repos TransactionalRepositories, placementID uuid.UUID, qty int64) (*Mutation, error) {
	p, err := l.LockPlacement(ctx, repos, placementID)
	if err != nil {
		return nil, err
	}
	if err := p.Release(qty); err != nil {
		return nil, err
	}
	if err := repos.PlacementRepo().Save(ctx, p); err != nil {
		return nil, err
	}
	return &Mutation{Placement: p}, nil
}

// Adjust moves on-hand stock, appends exactly one ledger entry and applies the
// same signed delta to the product aggregate
func (l *Ledger) Adjust(ctx context.Context, repos TransactionalRepositories, cmd AdjustCommand) (*Mutation, error) {
	p, err := l.LockPlacement(ctx, repos, cmd.PlacementID)
	if err != nil {
		return nil, err
	}
	return l.AdjustLocked(ctx, repos, p, cmd)
}

// AdjustLocked adjusts a placement the caller already locked
func (l *Ledger) AdjustLocked(ctx context.Context, repos TransactionalRepositories, p *inventory.StockPlacement, cmd AdjustCommand) (*Mutation, error) {
	delta, err := p.Adjust(cmd.Type, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	tx, err := inventory.NewStockTransaction(p, cmd.Type, cmd.Quantity, cmd.Reference, cmd.Note)
	if err != nil {
		return nil, err
	}
	if err := repos.PlacementRepo().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
		return nil, err
	}
	product, err := l.projection.ApplyDelta(ctx, repos, p.ProductID, delta, cmd.Type.String())
	if err != nil {
		return nil, err
	}
	return &Mutation{Placement: p, Transaction: tx, Product: product}, nil
}

// Delete removes a placement, settling its remaining on-hand quantity against
// the product aggregate exactly once. A remaining quantity is written to the
// ledger as one OUTBOUND entry so the history still reconciles.
func (l *Ledger) Delete(ctx context.Context, repos TransactionalRepositories, placementID uuid.UUID, reference string) (*Mutation, error) {
	p, err := l.LockPlacement(ctx, repos, placementID)
	if err != nil {
		return nil, err
	}
	remaining, err := p.PrepareRemoval()
	if err != nil {
		return nil, err
	}

	m := &Mutation{Placement: p}
	if remaining > 0 {
		tx, err := inventory.NewStockTransaction(p, inventory.TransactionTypeOutbound, remaining, reference, "placement removed")
		if err != nil {
			return nil, err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return nil, err
		}
		m.Transaction = tx
	}
	if err := repos.PlacementRepo().Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	product, err := l.projection.ApplyDelta(ctx, repos, p.ProductID, -remaining, catalog.ReasonPlacementRemoved)
	if err != nil {
		return nil, err
	}
	m.Product = product
	return m, nil
}
