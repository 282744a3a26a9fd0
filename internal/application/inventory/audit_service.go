package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditService records counted quantities and compares them with the ledger.
// It never corrects stock.
type AuditService struct {
	auditRepo      inventory.AuditRepository
	placementRepo  inventory.PlacementRepository
	references     *ReferenceChecker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(
	auditRepo inventory.AuditRepository,
	placementRepo inventory.PlacementRepository,
	references *ReferenceChecker,
	logger *zap.Logger,
) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		auditRepo:     auditRepo,
		placementRepo: placementRepo,
		references:    references,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for drift events
func (s *AuditService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Snapshot records a counted quantity
func (s *AuditService) Snapshot(ctx context.Context, req CreateAuditRequest) (*AuditResponse, error) {
	if req.RecordedQuantity == nil {
		return nil, shared.NewValidationError("recorded_quantity", "is required")
	}
	if _, err := s.references.Check(ctx, req.ProductID, req.WarehouseID, req.LocationID); err != nil {
		return nil, err
	}
	audit, err := inventory.NewStockAudit(req.WarehouseID, req.ProductID, req.LocationID, *req.RecordedQuantity, req.Note)
	if err != nil {
		return nil, err
	}
	if err := s.auditRepo.Create(ctx, audit); err != nil {
		return nil, err
	}
	resp := ToAuditResponse(audit)
	return &resp, nil
}

// Get retrieves an audit by ID
func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*AuditResponse, error) {
	audit, err := s.auditRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAuditResponse(audit)
	return &resp, nil
}

// List lists audits, newest first
func (s *AuditService) List(ctx context.Context, filter AuditListFilter) ([]AuditResponse, int64, error) {
	domainFilter := filter.toDomain()
	audits, err := s.auditRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.auditRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToAuditResponses(audits), total, nil
}

// DetectDrift compares the latest audit of each location with the live
// placement total there. Rows with a discrepancy are published as
// StockDriftDetected events.
func (s *AuditService) DetectDrift(ctx context.Context, filter AuditListFilter) ([]inventory.DriftReport, error) {
	latest, err := s.auditRepo.FindLatestPerLocation(ctx, filter.toDomain())
	if err != nil {
		return nil, err
	}

	reports := make([]inventory.DriftReport, 0, len(latest))
	var events []shared.DomainEvent
	for i := range latest {
		a := &latest[i]
		live, err := s.placementRepo.SumQuantityAt(ctx, a.WarehouseID, a.ProductID, a.LocationID)
		if err != nil {
			return nil, err
		}
		report := inventory.NewDriftReport(a, live)
		reports = append(reports, report)
		if report.HasDrift() {
			events = append(events, inventory.NewStockDriftDetectedEvent(report))
			s.logger.Warn("Stock drift detected",
				zap.String("audit_id", a.ID.String()),
				zap.String("product_id", a.ProductID.String()),
				zap.String("location_id", a.LocationID.String()),
				zap.Int64("recorded", report.Recorded),
				zap.Int64("live", report.Live),
			)
		}
	}

	if len(events) > 0 && s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return reports, nil
}
