package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls span creation for gorm statements.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string // postgresql or sqlite
	LogFullSQL      bool   // include bound variables in db.statement
	SlowQueryThresh time.Duration
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db and tags spans of statements
// slower than the threshold. Row-lock waits show up here: a FOR UPDATE that
// queues behind another order is the usual slow query.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, thresh) }

	cb := db.Callback()
	for _, reg := range []struct {
		name string
		err  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("wims:start_create", before)},
		{"query", cb.Query().Before("gorm:query").Register("wims:start_query", before)},
		{"update", cb.Update().Before("gorm:update").Register("wims:start_update", before)},
		{"delete", cb.Delete().Before("gorm:delete").Register("wims:start_delete", before)},
		{"row", cb.Row().Before("gorm:row").Register("wims:start_row", before)},
		{"raw", cb.Raw().Before("gorm:raw").Register("wims:start_raw", before)},
		{"create", cb.Create().After("gorm:create").Register("wims:slow_create", after)},
		{"query", cb.Query().After("gorm:query").Register("wims:slow_query", after)},
		{"update", cb.Update().After("gorm:update").Register("wims:slow_update", after)},
		{"delete", cb.Delete().After("gorm:delete").Register("wims:slow_delete", after)},
		{"row", cb.Row().After("gorm:row").Register("wims:slow_row", after)},
		{"raw", cb.Raw().After("gorm:raw").Register("wims:slow_raw", after)},
	} {
		if reg.err != nil {
			return errors.Join(errors.New("register "+reg.name+" callback"), reg.err)
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, thresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
