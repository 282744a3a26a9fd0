package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsRouter(m *PrometheusMetrics) *gin.Engine {
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())
	r.GET("/api/v1/placements/:id", func(c *gin.Context) { c.String(http.StatusOK, "placement") })
	r.POST("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusConflict) })
	return r
}

func TestPrometheusMetrics_CountsByRoute(t *testing.T) {
	m := NewPrometheusMetrics(DefaultHTTPMetricsConfig())
	r := metricsRouter(m)

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/placements/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/placements/2", nil))
	serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/placements/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/v1/orders", "409")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(m.inFlight))
}

func TestPrometheusMetrics_ScrapeEndpoint(t *testing.T) {
	m := NewPrometheusMetrics(DefaultHTTPMetricsConfig())
	r := metricsRouter(m)
	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/placements/1", nil))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "wims_http_requests_total")
	assert.Contains(t, body, "go_goroutines")
	assert.False(t, strings.Contains(body, `route="/metrics"`), "the scrape itself is not measured")
}
