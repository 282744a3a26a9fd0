package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wims/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig controls the pprof labels attached to each request
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/ready", "/metrics"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

func (cfg ProfilingConfig) skip(path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, p := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ProfilingWithConfig labels the goroutine profile of each request with
// its method, route and resource ("placements", "orders") so time spent
// waiting on placement locks can be split by endpoint in Pyroscope.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cfg.skip(c.Request.URL.Path) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels keeps cardinality low: the route template, never the raw path
func profilingLabels(c *gin.Context) map[string]string {
	labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
	if route := c.FullPath(); route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
		if res := extractResourceFromRoute(route); res != "" {
			labels[telemetry.ProfilingLabelResource] = res
		}
	}
	return labels
}

// extractResourceFromRoute returns the first literal segment after /api/vN:
// "/api/v1/placements/:id/reserve" gives "placements"
func extractResourceFromRoute(route string) string {
	for _, seg := range strings.Split(route, "/") {
		switch {
		case seg == "", seg == "api", isVersionSegment(seg):
		case seg[0] == ':' || seg[0] == '*':
		default:
			return seg
		}
	}
	return ""
}

func isVersionSegment(seg string) bool {
	if len(seg) < 2 || (seg[0] != 'v' && seg[0] != 'V') {
		return false
	}
	return strings.Trim(seg[1:], "0123456789") == ""
}
