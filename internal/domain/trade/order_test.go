package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wims/backend/internal/domain/shared"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), "")
	require.NoError(t, err)
	return o
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	chain := []OrderStatus{
		OrderStatusReceived, OrderStatusProcessing, OrderStatusReserved, OrderStatusPicked,
		OrderStatusPacked, OrderStatusShipped, OrderStatusDelivered,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, chain[i].CanTransitionTo(chain[i+1]), "%s -> %s", chain[i], chain[i+1])
		assert.False(t, chain[i+1].CanTransitionTo(chain[i]), "%s -> %s", chain[i+1], chain[i])
	}

	t.Run("cancel from every non-terminal status", func(t *testing.T) {
		for _, s := range chain[:len(chain)-1] {
			assert.True(t, s.CanTransitionTo(OrderStatusCancelled), s)
		}
	})

	t.Run("terminal statuses go nowhere", func(t *testing.T) {
		assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
		assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusReceived))
	})

	t.Run("no skipping", func(t *testing.T) {
		assert.False(t, OrderStatusReceived.CanTransitionTo(OrderStatusReserved))
		assert.False(t, OrderStatusReserved.CanTransitionTo(OrderStatusShipped))
	})
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)
	assert.Equal(t, OrderStatusReceived, o.Status)
	assert.Equal(t, DefaultPOSTerminalID, o.POSTerminalID)
	assert.True(t, o.TotalPrice.IsZero())

	_, err := NewOrder(uuid.Nil, "")
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestOrder_AddItem(t *testing.T) {
	o := newTestOrder(t)
	item, err := o.AddItem(uuid.New(), uuid.New(), uuid.New(), 3, decimal.NewFromFloat(1.99))
	require.NoError(t, err)
	assert.Equal(t, "5.97", item.Price.StringFixed(2))
	assert.Equal(t, o.ID, item.OrderID)

	_, err = o.AddItem(uuid.New(), uuid.New(), uuid.New(), 0, decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestOrder_MarkReserved(t *testing.T) {
	t.Run("sets total, timestamp and POS flag", func(t *testing.T) {
		o := newTestOrder(t)
		a, _ := o.AddItem(uuid.New(), uuid.New(), uuid.New(), 2, decimal.NewFromInt(10))
		b, _ := o.AddItem(uuid.New(), uuid.New(), uuid.New(), 1, decimal.NewFromFloat(4.5))
		pa, pb := uuid.New(), uuid.New()
		a.PlacementID = &pa
		b.PlacementID = &pb
		require.NoError(t, o.StartProcessing())

		now := time.Now()
		require.NoError(t, o.MarkReserved(now))

		assert.Equal(t, OrderStatusReserved, o.Status)
		assert.Equal(t, "24.50", o.TotalPrice.StringFixed(2))
		assert.Equal(t, &now, o.ReservedAt)
		assert.True(t, o.POSProcessed)
	})

	t.Run("refuses items without a reservation", func(t *testing.T) {
		o := newTestOrder(t)
		_, _ = o.AddItem(uuid.New(), uuid.New(), uuid.New(), 2, decimal.NewFromInt(10))
		require.NoError(t, o.StartProcessing())
		err := o.MarkReserved(time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvariantViolation))
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	o := newTestOrder(t)
	err := o.TransitionTo(OrderStatusShipped)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	err = o.TransitionTo(OrderStatus("Lost"))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	o.Status = OrderStatusShipped
	require.NoError(t, o.TransitionTo(OrderStatusDelivered))
	assert.NotNil(t, o.FulfilledAt)
}

func TestOrder_Cancel(t *testing.T) {
	o := newTestOrder(t)
	o.Status = OrderStatusReserved
	from, err := o.Cancel()
	require.NoError(t, err)
	assert.Equal(t, OrderStatusReserved, from)
	assert.Equal(t, OrderStatusCancelled, o.Status)

	_, err = o.Cancel()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestNewVerifiedPOSTransaction(t *testing.T) {
	o := newTestOrder(t)
	item, _ := o.AddItem(uuid.New(), uuid.New(), uuid.New(), 4, decimal.NewFromInt(1))

	tx := NewVerifiedPOSTransaction(o, item, "123")
	assert.Equal(t, POSTransactionVerified, tx.Status)
	assert.Equal(t, DefaultPOSTerminalID, tx.POSTerminalID)
	assert.Equal(t, int64(4), tx.Quantity)
	require.NotNil(t, item.POSTransactionID)
	assert.Equal(t, tx.ID, *item.POSTransactionID)
}
