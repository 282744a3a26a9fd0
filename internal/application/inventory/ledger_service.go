package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Ledger operation names used for logging and metrics
const (
	OpCreatePlacement = "create_placement"
	OpUpdatePlacement = "update_placement"
	OpDeletePlacement = "delete_placement"
	OpReserve         = "reserve"
	OpRelease         = "release"
	OpAdjust          = "adjust"
)

// OperationRecorder receives the outcome of every ledger mutation
type OperationRecorder interface {
	RecordOperation(ctx context.Context, op string, err error)
}

// LedgerService handles placement and ledger operations
type LedgerService struct {
	placementRepo   inventory.PlacementRepository
	transactionRepo inventory.TransactionRepository
	references      *ReferenceChecker
	txScope         TransactionScope
	ledger          *Ledger
	eventPublisher  shared.EventPublisher
	recorder        OperationRecorder
	logger          *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	placementRepo inventory.PlacementRepository,
	transactionRepo inventory.TransactionRepository,
	references *ReferenceChecker,
	txScope TransactionScope,
	ledger *Ledger,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		placementRepo:   placementRepo,
		transactionRepo: transactionRepo,
		references:      references,
		txScope:         txScope,
		ledger:          ledger,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetOperationRecorder sets the metrics sink for ledger operations
func (s *LedgerService) SetOperationRecorder(recorder OperationRecorder) {
	s.recorder = recorder
}

// publish sends events collected inside a committed scope
func (s *LedgerService) publish(ctx context.Context, mutations ...*Mutation) {
	if s.eventPublisher == nil {
		return
	}
	var events []shared.DomainEvent
	for _, m := range mutations {
		if m != nil {
			events = append(events, m.Events()...)
		}
	}
	if len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *LedgerService) observe(ctx context.Context, op string, placementID uuid.UUID, err error) {
	if s.recorder != nil {
		s.recorder.RecordOperation(ctx, op, err)
	}
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("placement_id", placementID.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, shared.ErrInvariantViolation):
		s.logger.Error("Stock invariant violated", fields...)
	case errors.Is(err, shared.ErrConcurrencyConflict):
		s.logger.Warn("Stock lock conflict", fields...)
	default:
		s.logger.Debug("Ledger operation rejected", fields...)
	}
}

// GetPlacement retrieves a placement by ID
func (s *LedgerService) GetPlacement(ctx context.Context, id uuid.UUID) (*PlacementResponse, error) {
	p, err := s.placementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlacementResponse(p)
	return &resp, nil
}

// ListPlacements retrieves placements with filtering and pagination
func (s *LedgerService) ListPlacements(ctx context.Context, filter PlacementListFilter) ([]PlacementResponse, int64, error) {
	domainFilter := filter.toDomain()
	placements, err := s.placementRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.placementRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPlacementResponses(placements), total, nil
}

// CreatePlacement creates a placement and applies its opening movement in the same transaction
func (s *LedgerService) CreatePlacement(ctx context.Context, req CreatePlacementRequest) (resp *PlacementResponse, err error) {
	var placementID uuid.UUID
	defer func() { s.observe(ctx, OpCreatePlacement, placementID, err) }()

	txType, err := inventory.ParseTransactionType(req.TransactionType, inventory.TransactionTypeInbound)
	if err != nil {
		return nil, err
	}
	if _, err := s.references.Check(ctx, req.ProductID, req.WarehouseID, req.LocationID); err != nil {
		return nil, err
	}

	attrs := inventory.DefaultPlacementAttributes()
	if req.MinStockLevel != nil {
		attrs.MinStockLevel = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		attrs.MaxStockLevel = *req.MaxStockLevel
	}
	if req.StorageType != "" {
		attrs.StorageType = inventory.StorageType(req.StorageType)
	}
	if req.Weight != nil {
		attrs.Weight = *req.Weight
	}
	attrs.Category = req.Category
	attrs.ExpiryDate = req.ExpiryDate

	placement, err := inventory.NewStockPlacement(req.ProductID, req.WarehouseID, req.LocationID, req.BatchNumber, attrs)
	if err != nil {
		return nil, err
	}
	placementID = placement.ID

	var mutation *Mutation
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.PlacementRepo().ExistsForBatch(ctx, req.ProductID, req.WarehouseID, req.LocationID, placement.BatchNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "A placement for this product, location and batch already exists")
		}
		if err := repos.PlacementRepo().Create(ctx, placement); err != nil {
			return err
		}
		if req.Quantity == 0 {
			mutation = &Mutation{Placement: placement}
			return nil
		}
		mutation, err = s.ledger.Adjust(ctx, repos, AdjustCommand{
			PlacementID: placement.ID,
			Type:        txType,
			Quantity:    req.Quantity,
			Reference:   req.Reference,
			Note:        "opening balance",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, mutation)
	s.logger.Info("Placement created",
		zap.String("placement_id", placementID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", mutation.Placement.Quantity),
	)
	out := ToPlacementResponse(mutation.Placement)
	return &out, nil
}

// UpdatePlacement updates descriptive fields and optionally applies a movement
func (s *LedgerService) UpdatePlacement(ctx context.Context, id uuid.UUID, req UpdatePlacementRequest) (resp *PlacementResponse, err error) {
	defer func() { s.observe(ctx, OpUpdatePlacement, id, err) }()

	var txType inventory.TransactionType
	if req.Quantity > 0 {
		txType, err = inventory.ParseTransactionType(req.TransactionType, inventory.TransactionTypeInbound)
		if err != nil {
			return nil, err
		}
	}

	var (
		placement *inventory.StockPlacement
		mutation  *Mutation
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.ledger.LockPlacement(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := p.UpdateAttributes(req.applyTo(p.PlacementAttributes)); err != nil {
			return err
		}
		if err := repos.PlacementRepo().Save(ctx, p); err != nil {
			return err
		}
		placement = p
		if req.Quantity == 0 {
			return nil
		}
		mutation, err = s.ledger.AdjustLocked(ctx, repos, p, AdjustCommand{
			PlacementID: p.ID,
			Type:        txType,
			Quantity:    req.Quantity,
			Reference:   req.Reference,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if mutation == nil {
		mutation = &Mutation{Placement: placement}
	}
	s.publish(ctx, mutation)
	out := ToPlacementResponse(placement)
	return &out, nil
}

func (r UpdatePlacementRequest) applyTo(attrs inventory.PlacementAttributes) inventory.PlacementAttributes {
	if r.MinStockLevel != nil {
		attrs.MinStockLevel = *r.MinStockLevel
	}
	if r.MaxStockLevel != nil {
		attrs.MaxStockLevel = *r.MaxStockLevel
	}
	if r.StorageType != nil {
		attrs.StorageType = inventory.StorageType(*r.StorageType)
	}
	if r.Category != nil {
		attrs.Category = *r.Category
	}
	if r.Weight != nil {
		attrs.Weight = *r.Weight
	}
	if r.ExpiryDate != nil {
		attrs.ExpiryDate = r.ExpiryDate
	}
	return attrs
}

// DeletePlacement removes a placement, settling its remaining quantity
func (s *LedgerService) DeletePlacement(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.observe(ctx, OpDeletePlacement, id, err) }()

	var mutation *Mutation
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mutation, err = s.ledger.Delete(ctx, repos, id, "placement:"+id.String())
		return err
	})
	if err != nil {
		return err
	}

	s.publish(ctx, mutation)
	settled := int64(0)
	if mutation.Transaction != nil {
		settled = mutation.Transaction.Quantity
	}
	s.logger.Info("Placement deleted",
		zap.String("placement_id", id.String()),
		zap.Int64("settled_quantity", settled),
	)
	return nil
}

// Reserve commits qty units of a placement
func (s *LedgerService) Reserve(ctx context.Context, id uuid.UUID, qty int64) (resp *PlacementResponse, err error) {
	defer func() { s.observe(ctx, OpReserve, id, err) }()

	var mutation *Mutation
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mutation, err = s.ledger.Reserve(ctx, repos, id, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mutation)
	out := ToPlacementResponse(mutation.Placement)
	return &out, nil
}

// Release gives back qty reserved units of a placement
func (s *LedgerService) Release(ctx context.Context, id uuid.UUID, qty int64) (resp *PlacementResponse, err error) {
	defer func() { s.observe(ctx, OpRelease, id, err) }()

	var mutation *Mutation
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mutation, err = s.ledger.Release(ctx, repos, id, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mutation)
	out := ToPlacementResponse(mutation.Placement)
	return &out, nil
}

// RecordTransaction applies a manual INBOUND/OUTBOUND movement
func (s *LedgerService) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (resp *TransactionResponse, err error) {
	defer func() { s.observe(ctx, OpAdjust, req.PlacementID, err) }()

	txType, err := inventory.ParseTransactionType(req.TransactionType, "")
	if err != nil {
		return nil, err
	}

	var mutation *Mutation
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mutation, err = s.ledger.Adjust(ctx, repos, AdjustCommand{
			PlacementID: req.PlacementID,
			Type:        txType,
			Quantity:    req.Quantity,
			Reference:   req.Reference,
			Note:        req.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, mutation)
	out := ToTransactionResponse(mutation.Transaction)
	return &out, nil
}

// ListTransactions lists ledger entries, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := filter.toDomain()
	txs, err := s.transactionRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(txs), total, nil
}

// LedgerBalance compares the signed sum of a placement's history with its quantity
func (s *LedgerService) LedgerBalance(ctx context.Context, id uuid.UUID) (*LedgerBalanceResponse, error) {
	p, err := s.placementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, err := s.transactionRepo.SumSigned(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LedgerBalanceResponse{
		PlacementID: id,
		LedgerSum:   sum,
		Quantity:    p.Quantity,
		Reconciles:  sum == p.Quantity,
	}, nil
}
