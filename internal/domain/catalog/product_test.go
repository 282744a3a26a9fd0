package catalog

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wims/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("sku-001", "4006381333931", "Widget", UnitTypeSingle, decimal.NewFromFloat(2.5), decimal.NewFromInt(1))
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("creates active product with zero stock", func(t *testing.T) {
		p := newTestProduct(t)

		assert.Equal(t, "SKU-001", p.SKU)
		assert.Equal(t, int64(0), p.Quantity)
		assert.True(t, p.IsActive)
		assert.Equal(t, 1, p.GetVersion())
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	t.Run("defaults unit type to single", func(t *testing.T) {
		p, err := NewProduct("A", "B", "C", "", decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, UnitTypeSingle, p.UnitType)
	})

	t.Run("rejects negative price and weight", func(t *testing.T) {
		_, err := NewProduct("A", "B", "C", UnitTypeBox, decimal.NewFromInt(-1), decimal.Zero)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewProduct("A", "B", "C", UnitTypeBox, decimal.Zero, decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weight")
	})

	t.Run("rejects unknown unit type", func(t *testing.T) {
		_, err := NewProduct("A", "B", "C", UnitType("pallet"), decimal.Zero, decimal.Zero)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unit_type")
	})
}

func TestProduct_PriceFor(t *testing.T) {
	p := newTestProduct(t)
	assert.True(t, decimal.NewFromFloat(7.5).Equal(p.PriceFor(3)))
}

func TestProduct_ApplyQuantityDelta(t *testing.T) {
	t.Run("applies positive and negative deltas", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ApplyQuantityDelta(50, ReasonInbound))
		require.NoError(t, p.ApplyQuantityDelta(-20, ReasonOutbound))

		assert.Equal(t, int64(30), p.Quantity)
		assert.Equal(t, 3, p.GetVersion())
		events := p.GetDomainEvents()
		require.Len(t, events, 2)
		ev, ok := events[1].(*ProductQuantityChangedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(50), ev.OldQuantity)
		assert.Equal(t, int64(30), ev.NewQuantity)
		assert.Equal(t, ReasonOutbound, ev.Reason)
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ApplyQuantityDelta(5, ReasonInbound))

		err := p.ApplyQuantityDelta(-6, ReasonOutbound)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvariantViolation))
		assert.Equal(t, int64(5), p.Quantity)
	})

	t.Run("refuses to overflow", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ApplyQuantityDelta(10, ReasonInbound))

		err := p.ApplyQuantityDelta(math.MaxInt64, ReasonInbound)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, int64(10), p.Quantity)
	})

	t.Run("zero delta is a no-op", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.ApplyQuantityDelta(0, ReasonInbound))
		assert.Empty(t, p.GetDomainEvents())
		assert.Equal(t, 1, p.GetVersion())
	})
}

func TestProduct_ResetQuantity(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.ResetQuantity(12))
	assert.Equal(t, int64(12), p.Quantity)

	require.Error(t, p.ResetQuantity(-1))
}

func TestNewWarehouseLocation(t *testing.T) {
	t.Run("valid location", func(t *testing.T) {
		wh, err := NewWarehouse("Main", "1 Dock Rd")
		require.NoError(t, err)
		loc, err := NewWarehouseLocation(wh.ID, "A-01", LocationShelf, CapacityMedium, 200)
		require.NoError(t, err)
		assert.True(t, loc.BelongsTo(wh.ID))
		assert.False(t, loc.BelongsTo(uuid.New()))
	})

	t.Run("collects every field error", func(t *testing.T) {
		_, err := NewWarehouseLocation(uuid.Nil, "", "Freezer", "Huge", 0)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 5)
	})
}
