package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{"zero value", Filter{}, Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: "desc"}},
		{"oversized page", Filter{Page: 3, PageSize: 500, OrderDir: "asc"}, Filter{Page: 3, PageSize: MaxPageSize, OrderDir: "asc"}},
		{"negative page", Filter{Page: -2, PageSize: 10, OrderDir: "ASC"}, Filter{Page: 1, PageSize: 10, OrderDir: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			require.NotNil(t, got.Filters)
			got.Filters = nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, Filter{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
}

func TestDomainError_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("reserve: %w", NewNotFoundError("placement", uuid.New()))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, NewInvariantViolation("quantity %d below zero", -1), ErrInvariantViolation)
	assert.ErrorIs(t, NewInvalidStateError("order is %s", "CANCELLED"), ErrInvalidState)
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{ProductID: uuid.New(), Available: 3, Requested: 5}

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 3, requested 5")

	var typed *InsufficientStockError
	require.True(t, errors.As(fmt.Errorf("order line 1: %w", err), &typed))
	assert.Equal(t, int64(5), typed.Requested)
}

func TestValidationError(t *testing.T) {
	var none *ValidationError
	assert.False(t, none.HasErrors())

	err := NewValidationError("quantity", "must be positive").Add("reference", "is required")
	assert.True(t, err.HasErrors())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: quantity: must be positive; reference: is required", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("lock: %w", ErrConcurrencyConflict)))
	assert.False(t, IsRetryable(ErrInsufficientStock))
}

func TestLockKey(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, "placement:7d444840-9dc0-11d1-b245-5ffdce74fad2", PlacementKey(id).String())
	assert.Equal(t, ResourceProduct, ProductKey(id).Resource)
	assert.Equal(t, ResourceOrder, OrderKey(id).Resource)
}

type testEvent struct{ BaseDomainEvent }

func TestBaseAggregateRoot(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.Equal(t, 1, root.GetVersion())
	assert.Equal(t, root.CreatedAt, root.UpdatedAt)

	before := root.UpdatedAt
	time.Sleep(time.Millisecond)
	root.IncrementVersion()
	assert.Equal(t, 2, root.GetVersion())
	assert.True(t, root.UpdatedAt.After(before))

	root.AddDomainEvent(&testEvent{})
	root.AddDomainEvent(&testEvent{})
	assert.Len(t, root.GetDomainEvents(), 2)
	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}
