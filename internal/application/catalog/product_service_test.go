package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/shared"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func newTestProduct(t *testing.T, sku string, qty int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, sku+"-BC", "Product "+sku, catalog.UnitTypeSingle, decimal.NewFromInt(5), decimal.Zero)
	require.NoError(t, err)
	p.Quantity = qty
	return p
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the cached quantity", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)
		p := newTestProduct(t, "abc", 42)
		repo.On("FindByID", ctx, p.ID).Return(p, nil)

		resp, err := svc.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "ABC", resp.SKU)
		assert.Equal(t, int64(42), resp.Quantity)
		assert.Equal(t, "single", resp.UnitType)
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.GetByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProductRepository)
	svc := NewProductService(repo)

	active := true
	products := []catalog.Product{*newTestProduct(t, "a", 1), *newTestProduct(t, "b", 2)}
	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 10 && f.Filters[catalog.FilterIsActive] == true &&
			f.Filters[catalog.FilterSearch] == "wid"
	})
	repo.On("FindAll", ctx, matchFilter).Return(products, nil)
	repo.On("Count", ctx, matchFilter).Return(int64(12), nil)

	list, total, err := svc.List(ctx, ProductListFilter{Search: "wid", IsActive: &active, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].Quantity)
	repo.AssertExpectations(t)
}
