package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wims/backend/internal/domain/shared"
)

// LedgerMetrics counts ledger mutations, order outcomes and reconciliation
// drift. It satisfies the recorder interfaces of the inventory and trade
// application services.
type LedgerMetrics struct {
	operations    metric.Int64Counter
	conflicts     metric.Int64Counter
	ordersCreated metric.Int64Counter
	orderItems    metric.Int64Histogram
	ordersRejects metric.Int64Counter
	drift         metric.Int64Gauge
}

// NewLedgerMetrics registers the instruments on mp's meter.
func NewLedgerMetrics(mp *MeterProvider) (*LedgerMetrics, error) {
	meter := mp.Meter(instrumentationName)
	m := &LedgerMetrics{}
	var err error

	if m.operations, err = meter.Int64Counter("wims.ledger.operations",
		metric.WithDescription("Ledger mutations by operation and result"),
		metric.WithUnit("{operation}")); err != nil {
		return nil, err
	}
	if m.conflicts, err = meter.Int64Counter("wims.ledger.conflicts",
		metric.WithDescription("Ledger mutations that lost a lock or timed out waiting"),
		metric.WithUnit("{operation}")); err != nil {
		return nil, err
	}
	if m.ordersCreated, err = meter.Int64Counter("wims.orders.created",
		metric.WithDescription("Orders created with every item reserved"),
		metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.orderItems, err = meter.Int64Histogram("wims.orders.items",
		metric.WithDescription("Line items per created order"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50)); err != nil {
		return nil, err
	}
	if m.ordersRejects, err = meter.Int64Counter("wims.orders.rejected",
		metric.WithDescription("Orders refused before commit"),
		metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.drift, err = meter.Int64Gauge("wims.projection.drift",
		metric.WithDescription("Drift found by the last reconciliation run"),
		metric.WithUnit("{record}")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation counts one ledger mutation.
func (m *LedgerMetrics) RecordOperation(ctx context.Context, op string, err error) {
	result := resultOf(err)
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))
	if result == "conflict" {
		m.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

// RecordOrderCreated counts a committed order.
func (m *LedgerMetrics) RecordOrderCreated(ctx context.Context, items int) {
	m.ordersCreated.Add(ctx, 1)
	m.orderItems.Record(ctx, int64(items))
}

// RecordOrderRejected counts an order that was rolled back.
func (m *LedgerMetrics) RecordOrderRejected(ctx context.Context, reason string) {
	m.ordersRejects.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordDrift publishes the drift counts of a reconciliation run.
func (m *LedgerMetrics) RecordDrift(ctx context.Context, productDrift, auditDrift int) {
	m.drift.Record(ctx, int64(productDrift), metric.WithAttributes(attribute.String("kind", "product")))
	m.drift.Record(ctx, int64(auditDrift), metric.WithAttributes(attribute.String("kind", "audit")))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidState):
		return "rejected"
	default:
		return "error"
	}
}
