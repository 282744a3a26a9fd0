package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	ctx, l := WithRequestID(context.Background(), zap.NewNop(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, l, FromContext(ctx))
}

func TestWithOperationAndIdempotencyKey(t *testing.T) {
	ctx, l := WithOperation(context.Background(), zap.NewNop(), "reserve")
	ctx, _ = WithIdempotencyKey(ctx, l, "key-1")

	assert.Equal(t, "reserve", GetOperation(ctx))
	assert.Equal(t, "key-1", GetIdempotencyKey(ctx))
	assert.Empty(t, GetRequestID(ctx))
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetOperation(ctx))
	assert.Empty(t, GetIdempotencyKey(ctx))
}

func validSpanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	assert.Same(t, base, WithTraceContext(context.Background(), base))

	WithTraceContext(validSpanContext(t), base).Info("traced")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestTaggedLoggerCarriesFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	ctx, l := WithRequestID(context.Background(), zap.New(core), "req-9")
	ctx, l = WithOperation(ctx, l, "adjust")
	ctx, _ = WithIdempotencyKey(ctx, l, "idem-7")

	WithTraceContext(validSpanContext(t), FromContext(ctx)).Warn("adjusted", zap.String("placement_id", "p-1"))

	require.Len(t, recorded.All(), 1)
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "adjust", fields["operation"])
	assert.Equal(t, "idem-7", fields["idempotency_key"])
	assert.Equal(t, "p-1", fields["placement_id"])
	assert.Contains(t, fields, "trace_id")
}
