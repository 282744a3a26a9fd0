package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wims/backend/internal/domain/inventory"
	"github.com/wims/backend/internal/domain/shared"
)

type sampleEvent struct {
	shared.BaseDomainEvent
	Quantity int64 `json:"quantity"`
}

func newSampleEvent(eventType string) *sampleEvent {
	return &sampleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StockPlacement", uuid.New()),
		Quantity:        3,
	}
}

type recordingHandler struct {
	mu    sync.Mutex
	types []string
	seen  []string
	err   error
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, ev.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) got() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	reserved := &recordingHandler{types: []string{inventory.EventTypeStockReserved}}
	all := &recordingHandler{}
	bus.Subscribe(reserved)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newSampleEvent(inventory.EventTypeStockReserved),
		newSampleEvent(inventory.EventTypeStockReleased),
	))

	assert.Equal(t, []string{inventory.EventTypeStockReserved}, reserved.got())
	assert.Equal(t, []string{inventory.EventTypeStockReserved, inventory.EventTypeStockReleased}, all.got())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"Ignored"}}
	bus.Subscribe(h, inventory.EventTypeStockAdjusted)

	require.NoError(t, bus.Publish(context.Background(), newSampleEvent("Ignored"), newSampleEvent(inventory.EventTypeStockAdjusted)))
	assert.Equal(t, []string{inventory.EventTypeStockAdjusted}, h.got())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("broker down")}
	panicking := &HandlerFunc{Fn: func(context.Context, shared.DomainEvent) error { panic("boom") }}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newSampleEvent(inventory.EventTypeStockReserved))
	require.NoError(t, err, "publish never fails the committed operation")
	assert.Len(t, healthy.got(), 1)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h, inventory.EventTypeStockReserved, inventory.EventTypeStockReleased)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newSampleEvent(inventory.EventTypeStockReserved)))
	assert.Empty(t, h.got())
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, newSampleEvent(inventory.EventTypeStockReserved)))
	assert.Empty(t, h.got())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newSampleEvent(inventory.EventTypeStockReserved)))
	assert.Len(t, h.got(), 1)
}
