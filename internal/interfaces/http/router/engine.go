package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/wims/backend/internal/infrastructure/config"
	"github.com/wims/backend/internal/infrastructure/logger"
	"github.com/wims/backend/internal/interfaces/http/middleware"
)

// EngineOptions carries everything NewEngine wires into the gin engine
type EngineOptions struct {
	Config   *config.Config
	Logger   *zap.Logger
	Handlers Handlers
	// Metrics is created from defaults when nil
	Metrics *middleware.PrometheusMetrics
}

// NewEngine builds the HTTP engine: the global middleware chain, health checks,
// /metrics, the Swagger UI and every API route. The returned cleanup
// stops background work owned by the middleware.
func NewEngine(opts EngineOptions) (*gin.Engine, func(), error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = middleware.NewPrometheusMetrics(middleware.DefaultHTTPMetricsConfig())
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	}

	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = cfg.Profiling.Enabled

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(tracingCfg),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.ProfilingWithConfig(profilingCfg),
		metrics.Middleware(),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if sys := opts.Handlers.System; sys != nil {
		engine.GET("/health", sys.Health)
		engine.GET("/ready", sys.Ready)
	}
	engine.GET("/metrics", metrics.Handler())
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	cleanup := func() {}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		r.Use(middleware.MutatingOnly(middleware.RateLimit(limiter)))
		cleanup = limiter.Stop
	}
	for _, group := range opts.Handlers.Groups() {
		r.Register(group)
	}
	r.Setup()

	log.Info("HTTP routes registered", zap.Int("routes", len(engine.Routes())))
	return engine, cleanup, nil
}
