package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wims/backend/internal/infrastructure/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	newRouter := func(origins ...string) *gin.Engine {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = origins
		r := gin.New()
		r.Use(CORSWithConfig(cfg))
		r.GET("/api/v1/placements", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("allowed origin gets headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/placements", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		w := serve(newRouter("https://ops.example.com"), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderIdempotencyKey)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets none", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/placements", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(newRouter("https://ops.example.com"), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/placements", nil)
		req.Header.Set("Origin", "https://any.example.com")
		w := serve(newRouter("*"), req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight always 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/placements", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(newRouter(), req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(logger.GinRequestIDKey)
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Len(t, seen, 32)
		assert.Equal(t, seen, w.Header().Get(HeaderRequestID))
	})

	t.Run("client supplied is kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "corr-42")
		w := serve(r, req)
		assert.Equal(t, "corr-42", seen)
		assert.Equal(t, "corr-42", w.Header().Get(HeaderRequestID))
	})

	t.Run("long ids are truncated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("a", 500))
		serve(r, req)
		assert.Len(t, seen, MaxRequestIDLength)
	})
}

func TestGenerateRequestID_Unique(t *testing.T) {
	ids := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		ids[generateRequestID()] = struct{}{}
	}
	assert.Len(t, ids, 100)
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestOperation(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), logger.GinMiddleware(zap.NewNop()))

	var op, key string
	r.POST("/orders", Operation("create_order"), func(c *gin.Context) {
		op = logger.GetOperation(c.Request.Context())
		key = logger.GetIdempotencyKey(c.Request.Context())
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(HeaderIdempotencyKey, "order-9")
	serve(r, req)
	assert.Equal(t, "create_order", op)
	assert.Equal(t, "order-9", key)

	req = httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(HeaderIdempotencyKey, strings.Repeat("k", MaxIdempotencyKeyLength+1))
	serve(r, req)
	assert.Equal(t, "create_order", op)
	assert.Empty(t, key, "oversized keys are left to the handler to reject")
}
