package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

// Context keys set by the HTTP layer
const (
	LoggerKey         contextKey = "logger"
	RequestIDKey      contextKey = "request_id"
	OperationKey      contextKey = "operation"
	IdempotencyKeyKey contextKey = "idempotency_key"
)

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// tag stores value under key and returns ctx and a logger carrying it as a field
func tag(ctx context.Context, logger *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	l := logger.With(zap.String(string(key), value))
	ctx = context.WithValue(ctx, key, value)
	return WithContext(ctx, l), l
}

// WithRequestID tags ctx and logger with the request correlation id
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, RequestIDKey, requestID)
}

// WithOperation tags ctx and logger with a ledger operation (reserve, create_order, ...)
func WithOperation(ctx context.Context, logger *zap.Logger, operation string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, OperationKey, operation)
}

// WithIdempotencyKey tags ctx and logger with the client's Idempotency-Key
func WithIdempotencyKey(ctx context.Context, logger *zap.Logger, key string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, IdempotencyKeyKey, key)
}

func value(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

func GetRequestID(ctx context.Context) string      { return value(ctx, RequestIDKey) }
func GetOperation(ctx context.Context) string      { return value(ctx, OperationKey) }
func GetIdempotencyKey(ctx context.Context) string { return value(ctx, IdempotencyKeyKey) }

// WithTraceContext adds trace_id and span_id of the active span to logger.
// Without a valid span the logger is returned unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
