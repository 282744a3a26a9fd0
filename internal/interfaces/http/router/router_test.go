package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wims/backend/internal/infrastructure/config"
	"github.com/wims/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	var hits []string
	r.Use(func(c *gin.Context) {
		hits = append(hits, c.FullPath())
		c.Next()
	})
	r.Register(NewDomainGroup("ping", "/ping").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodGet, "/api/v2/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	serve(engine, http.MethodGet, "/outside")
	assert.Equal(t, []string{"/api/v2/ping"}, hits, "router middleware runs for API routes only")
}

func TestDomainGroup(t *testing.T) {
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	g := NewDomainGroup("items", "/items").
		GET("", ok).
		POST("", ok).
		PUT("/:id", ok).
		PATCH("/:id", ok).
		DELETE("/:id", ok)
	assert.Equal(t, "items", g.Name())
	assert.Equal(t, "/items", g.Prefix())

	var groupMW int
	g.Use(func(c *gin.Context) {
		groupMW++
		c.Next()
	})

	engine := gin.New()
	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/items"},
		{http.MethodPost, "/api/v1/items"},
		{http.MethodPut, "/api/v1/items/1"},
		{http.MethodPatch, "/api/v1/items/1"},
		{http.MethodDelete, "/api/v1/items/1"},
	} {
		w := serve(engine, tc.method, tc.path)
		assert.Equal(t, http.StatusOK, w.Code, tc.method)
		assert.Equal(t, tc.method, w.Body.String())
	}
	assert.Equal(t, 5, groupMW)

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/other").Code)
}

func TestHandlers_GroupsSkipsNil(t *testing.T) {
	groups := Handlers{System: handler.NewSystemHandler("test", nil)}.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "system", groups[0].Name())

	assert.Empty(t, Handlers{}.Groups())
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "wims", Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:       1 << 20,
			RateLimitEnabled:  true,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Swagger: config.SwaggerConfig{Enabled: false},
	}
}

func TestNewEngine(t *testing.T) {
	handlers := Handlers{
		Placements:        handler.NewPlacementHandler(nil),
		StockTransactions: handler.NewStockTransactionHandler(nil),
		StockAudits:       handler.NewStockAuditHandler(nil),
		Products:          handler.NewProductHandler(nil, nil),
		Orders:            handler.NewOrderHandler(nil),
		System:            handler.NewSystemHandler("test", nil),
	}
	engine, cleanup, err := NewEngine(EngineOptions{
		Config:   testConfig(),
		Logger:   zaptest.NewLogger(t),
		Handlers: handlers,
	})
	require.NoError(t, err)
	defer cleanup()

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /swagger/*any",
		"POST /api/v1/placements",
		"POST /api/v1/placements/:id/reserve",
		"POST /api/v1/placements/:id/release",
		"GET /api/v1/placements/:id/ledger",
		"POST /api/v1/stock-transactions",
		"GET /api/v1/stock-audits/drift",
		"GET /api/v1/stock-audits/:id",
		"GET /api/v1/products/:id/availability",
		"POST /api/v1/products/:id/reconcile",
		"PATCH /api/v1/orders/:id/status",
		"POST /api/v1/orders/:id/cancel",
		"POST /api/v1/system/reconcile",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	w := serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(engine, http.MethodGet, "/api/v1/system/info")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(engine, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `route="/api/v1/system/info"`))

	w = serve(engine, http.MethodGet, "/swagger/index.html")
	assert.Equal(t, http.StatusNotFound, w.Code, "swagger disabled in config")
}
