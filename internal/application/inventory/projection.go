package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QuantityProjection maintains Product.Quantity as the cached sum of the
// product's placement quantities.
type QuantityProjection struct{}

// NewQuantityProjection creates a QuantityProjection
func NewQuantityProjection() *QuantityProjection {
	return &QuantityProjection{}
}

// ApplyDelta locks the product and moves its cached quantity by delta.
// The placement lock must already be held so the lock order stays
// placement -> product.
func (p *QuantityProjection) ApplyDelta(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID, delta int64, reason string) (*catalog.Product, error) {
	if err := repos.Locks().Lock(ctx, shared.ProductKey(productID)); err != nil {
		return nil, err
	}
	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return product, nil
	}
	if err := product.ApplyQuantityDelta(delta, reason); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ProjectionService exposes reads and reconciliation of the product quantity cache
type ProjectionService struct {
	productRepo    catalog.ProductRepository
	placementRepo  inventory.PlacementRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(
	productRepo catalog.ProductRepository,
	placementRepo inventory.PlacementRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectionService{
		productRepo:   productRepo,
		placementRepo: placementRepo,
		txScope:       txScope,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProjectionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Available returns the cached on-hand total together with the reserved part
func (s *ProjectionService) Available(ctx context.Context, productID uuid.UUID) (*AvailabilityResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.placementRepo.SumReservedByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{
		ProductID: product.ID,
		SKU:       product.SKU,
		Quantity:  product.Quantity,
		Reserved:  reserved,
		Available: product.Quantity - reserved,
	}, nil
}

// Reconcile recomputes the product total from its placements under the product
// lock. The cache is overwritten only when repair is set.
func (s *ProjectionService) Reconcile(ctx context.Context, productID uuid.UUID, repair bool) (*ReconcileResult, error) {
	var (
		result  *ReconcileResult
		product *catalog.Product
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Locks().Lock(ctx, shared.ProductKey(productID)); err != nil {
			return err
		}
		p, err := repos.ProductRepo().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		computed, err := repos.PlacementRepo().SumQuantityByProduct(ctx, productID)
		if err != nil {
			return err
		}
		result = &ReconcileResult{
			ProductID: productID,
			Cached:    p.Quantity,
			Computed:  computed,
			Drift:     p.Quantity - computed,
		}
		if result.Drift == 0 || !repair {
			return nil
		}
		if err := p.ResetQuantity(computed); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, p); err != nil {
			return err
		}
		result.Repaired = true
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Drift != 0 {
		s.logger.Warn("Product quantity drift detected",
			zap.String("product_id", productID.String()),
			zap.Int64("cached", result.Cached),
			zap.Int64("computed", result.Computed),
			zap.Bool("repaired", result.Repaired),
		)
	}
	if product != nil && s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, product.GetDomainEvents()...)
		product.ClearDomainEvents()
	}
	return result, nil
}

// ReconcileAll reconciles every product. Individual failures are collected
// and do not stop the run.
func (s *ProjectionService) ReconcileAll(ctx context.Context, repair bool) (*ReconcileSummary, error) {
	ids, err := s.productRepo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	summary := &ReconcileSummary{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := s.Reconcile(ctx, id, repair)
		summary.Checked++
		if err != nil {
			summary.Failed++
			s.logger.Error("Failed to reconcile product",
				zap.String("product_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if result.Drift != 0 {
			summary.Drifted = append(summary.Drifted, *result)
			if result.Repaired {
				summary.Repaired++
			}
		}
	}
	return summary, nil
}
