package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	catalogapp "github.com/wims/backend/internal/application/catalog"
	inventoryapp "github.com/wims/backend/internal/application/inventory"
	tradeapp "github.com/wims/backend/internal/application/trade"
	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/infrastructure/scheduler"
)

// MockLedgerService implements PlacementService and TransactionService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetPlacement(ctx context.Context, id uuid.UUID) (*inventoryapp.PlacementResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.PlacementResponse), args.Error(1)
}

func (m *MockLedgerService) ListPlacements(ctx context.Context, filter inventoryapp.PlacementListFilter) ([]inventoryapp.PlacementResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventoryapp.PlacementResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) CreatePlacement(ctx context.Context, req inventoryapp.CreatePlacementRequest) (*inventoryapp.PlacementResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.PlacementResponse), args.Error(1)
}

func (m *MockLedgerService) UpdatePlacement(ctx context.Context, id uuid.UUID, req inventoryapp.UpdatePlacementRequest) (*inventoryapp.PlacementResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.PlacementResponse), args.Error(1)
}

func (m *MockLedgerService) DeletePlacement(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLedgerService) Reserve(ctx context.Context, id uuid.UUID, qty int64) (*inventoryapp.PlacementResponse, error) {
	args := m.Called(ctx, id, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.PlacementResponse), args.Error(1)
}

func (m *MockLedgerService) Release(ctx context.Context, id uuid.UUID, qty int64) (*inventoryapp.PlacementResponse, error) {
	args := m.Called(ctx, id, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.PlacementResponse), args.Error(1)
}

func (m *MockLedgerService) LedgerBalance(ctx context.Context, id uuid.UUID) (*inventoryapp.LedgerBalanceResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.LedgerBalanceResponse), args.Error(1)
}

func (m *MockLedgerService) RecordTransaction(ctx context.Context, req inventoryapp.RecordTransactionRequest) (*inventoryapp.TransactionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.TransactionResponse), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, filter inventoryapp.TransactionListFilter) ([]inventoryapp.TransactionResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventoryapp.TransactionResponse), args.Get(1).(int64), args.Error(2)
}

// MockAuditService implements AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Snapshot(ctx context.Context, req inventoryapp.CreateAuditRequest) (*inventoryapp.AuditResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.AuditResponse), args.Error(1)
}

func (m *MockAuditService) Get(ctx context.Context, id uuid.UUID) (*inventoryapp.AuditResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.AuditResponse), args.Error(1)
}

func (m *MockAuditService) List(ctx context.Context, filter inventoryapp.AuditListFilter) ([]inventoryapp.AuditResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventoryapp.AuditResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditService) DetectDrift(ctx context.Context, filter inventoryapp.AuditListFilter) ([]inventory.DriftReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.DriftReport), args.Error(1)
}

// MockProductReader implements ProductReader
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductReader) List(ctx context.Context, filter catalogapp.ProductListFilter) ([]catalogapp.ProductResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalogapp.ProductResponse), args.Get(1).(int64), args.Error(2)
}

// MockQuantityProjection implements QuantityProjection
type MockQuantityProjection struct {
	mock.Mock
}

func (m *MockQuantityProjection) Available(ctx context.Context, productID uuid.UUID) (*inventoryapp.AvailabilityResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.AvailabilityResponse), args.Error(1)
}

func (m *MockQuantityProjection) Reconcile(ctx context.Context, productID uuid.UUID, repair bool) (*inventoryapp.ReconcileResult, error) {
	args := m.Called(ctx, productID, repair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ReconcileResult), args.Error(1)
}

// MockOrderService implements OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]tradeapp.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req tradeapp.CreateOrderRequest, idempotencyKey string) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) TransitionOrder(ctx context.Context, id uuid.UUID, req tradeapp.UpdateOrderStatusRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

// MockReconcileTrigger implements ReconcileTrigger
type MockReconcileTrigger struct {
	mock.Mock
}

func (m *MockReconcileTrigger) TriggerNow() (*scheduler.Job, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Job), args.Error(1)
}

func (m *MockReconcileTrigger) LastJob() (scheduler.Job, bool) {
	args := m.Called()
	return args.Get(0).(scheduler.Job), args.Bool(1)
}
