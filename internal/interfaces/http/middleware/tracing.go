package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wims/backend/internal/infrastructure/logger"
)

// MaxIdempotencyKeyLength caps the Idempotency-Key copied onto spans
const MaxIdempotencyKeyLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "wims-backend",
		Enabled:     true,
	}
}

// TracingWithConfig returns the otelgin server span middleware. Spans carry
// the route pattern rather than the raw path.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector copies request attributes onto the current span.
// It runs inside otelgin, after RequestID.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
		if len(key) > MaxIdempotencyKeyLength {
			key = key[:MaxIdempotencyKeyLength]
		}
		span.SetAttributes(attribute.String("idempotency_key", key))
	}
}

// SpanErrorMarker marks spans of 5xx responses as errors and tags lock
// conflicts so contention is searchable. It runs inside otelgin.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if op := logger.GetOperation(c.Request.Context()); op != "" {
			span.SetAttributes(attribute.String("wims.operation", op))
		}
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		case status == http.StatusConflict:
			span.SetAttributes(attribute.Bool("wims.conflict", true))
		}
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}
