package scheduler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	appinv "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/infrastructure/telemetry"
)

// Reconciler performs one reconciliation pass.
// *inventory.ReconcileService satisfies it.
type Reconciler interface {
	RunOnce(ctx context.Context) (*appinv.ReconcileStats, error)
}

// ReconcileExecutor adapts a Reconciler to JobExecutor
type ReconcileExecutor struct {
	reconciler Reconciler
	logger     *zap.Logger
}

// NewReconcileExecutor creates a new reconcile executor
func NewReconcileExecutor(reconciler Reconciler, logger *zap.Logger) *ReconcileExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileExecutor{reconciler: reconciler, logger: logger}
}

// Execute runs the reconciliation inside a span
func (e *ReconcileExecutor) Execute(ctx context.Context, job *Job) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.run",
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.trigger", string(job.Trigger)),
		attribute.Int("job.retry", job.RetryCount),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	stats, err := e.reconciler.RunOnce(ctx)
	if err != nil {
		return err
	}

	span.SetAttributes(
		attribute.Int("reconcile.products_checked", stats.ProductsChecked),
		attribute.Int("reconcile.products_drifted", stats.ProductsDrifted),
		attribute.Int("reconcile.audits_drifted", stats.AuditsDrifted),
	)
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.Int("products_checked", stats.ProductsChecked),
		zap.Int("products_drifted", stats.ProductsDrifted),
		zap.Int("products_repaired", stats.ProductsRepaired),
		zap.Int("products_failed", stats.ProductsFailed),
		zap.Int("audits_compared", stats.AuditsCompared),
		zap.Int("audits_drifted", stats.AuditsDrifted),
		zap.Duration("duration", stats.Duration),
	}
	if stats.ProductsDrifted > 0 || stats.AuditsDrifted > 0 {
		e.logger.Warn("Reconciliation found drift", fields...)
	} else {
		e.logger.Info("Reconciliation clean", fields...)
	}
	return nil
}
