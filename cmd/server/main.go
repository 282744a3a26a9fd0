package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/wims/backend/docs"
	catalogapp "github.com/wims/backend/internal/application/catalog"
	inventoryapp "github.com/wims/backend/internal/application/inventory"
	tradeapp "github.com/wims/backend/internal/application/trade"
	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/infrastructure/cache"
	"github.com/wims/backend/internal/infrastructure/config"
	"github.com/wims/backend/internal/infrastructure/event"
	"github.com/wims/backend/internal/infrastructure/lock"
	"github.com/wims/backend/internal/infrastructure/logger"
	"github.com/wims/backend/internal/infrastructure/persistence"
	"github.com/wims/backend/internal/infrastructure/scheduler"
	"github.com/wims/backend/internal/infrastructure/telemetry"
	"github.com/wims/backend/internal/interfaces/http/handler"
	"github.com/wims/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			WIMS Backend API
//	@version		1.0
//	@description	Warehouse inventory reservation and stock ledger API

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The OTel log provider must exist before the logger so zap can tee into it
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	})
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}

	logCfg := logger.FromAppConfig(cfg.Log)
	logOpts := []logger.Option{logger.WithFields(
		zap.String("service", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
	)}
	if logsProvider.IsEnabled() {
		logOpts = append(logOpts, logger.WithTee(logsProvider.Core(zapcore.InfoLevel)))
	}
	log, err := logger.New(logCfg, logOpts...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting WIMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		AuthToken:       cfg.Profiling.AuthToken,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithExpectedErrors(persistence.IsLockError),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
		// sqlite has no migration files; the schema comes from the models
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Redis is optional; it backs the distributed lock and idempotency store
	var redisClient *redis.Client
	redisCfg := cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	locker, lockRedis := newLocker(ctx, cfg, redisCfg, log)
	if lockRedis != nil {
		redisClient = lockRedis
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	placementRepo := persistence.NewGormPlacementRepository(db.DB)
	transactionRepo := persistence.NewGormStockTransactionRepository(db.DB)
	auditRepo := persistence.NewGormStockAuditRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	ledgerScope := persistence.NewGormTransactionScope(db.DB, locker, cfg.Database.LockTimeout)
	orderScope := persistence.NewGormOrderTransactionScope(db.DB, locker, cfg.Database.LockTimeout)

	// Events: in-process bus, optionally forwarded to Kafka
	eventBus := event.NewInMemoryEventBus(log)
	var kafkaPublisher *event.KafkaPublisher
	if cfg.Events.KafkaEnabled {
		kafkaPublisher, err = event.NewKafkaPublisher(event.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			WriteTimeout: cfg.Events.WriteTimeout,
			ClientID:     cfg.App.Name,
		}, log)
		if err != nil {
			log.Fatal("Failed to create Kafka publisher", zap.Error(err))
		}
		eventBus.Subscribe(kafkaPublisher)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	references := inventoryapp.NewReferenceChecker(productRepo, warehouseRepo, locationRepo)
	ledger := inventoryapp.NewLedger(inventoryapp.NewQuantityProjection())

	ledgerService := inventoryapp.NewLedgerService(placementRepo, transactionRepo, references, ledgerScope, ledger, log)
	ledgerService.SetEventPublisher(eventBus)
	ledgerService.SetOperationRecorder(ledgerMetrics)

	auditService := inventoryapp.NewAuditService(auditRepo, placementRepo, references, log)
	auditService.SetEventPublisher(eventBus)

	projectionService := inventoryapp.NewProjectionService(productRepo, placementRepo, ledgerScope, log)
	projectionService.SetEventPublisher(eventBus)

	reconcileService := inventoryapp.NewReconcileService(projectionService, auditService, cfg.Reconcile.Repair, log)
	reconcileService.SetDriftRecorder(ledgerMetrics)

	productService := catalogapp.NewProductService(productRepo)

	orderService := tradeapp.NewOrderService(orderRepo, customerRepo, references, ledger, orderScope, log)
	orderService.SetEventPublisher(eventBus)
	orderService.SetOrderRecorder(ledgerMetrics)
	if cfg.Idempotency.Enabled {
		factory := cache.NewIdempotencyStoreFactory(redisCfg,
			cache.WithLogger(log),
			cache.WithKeyPrefix("wims:idempotency:"),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		)
		var store shared.IdempotencyStore
		if cfg.Idempotency.Backend == "memory" {
			store = cache.NewInMemoryIdempotencyStore()
		} else {
			var idemRedis *redis.Client
			store, idemRedis, err = factory.CreateStore(ctx)
			if err != nil {
				log.Fatal("Failed to create idempotency store", zap.Error(err))
			}
			if idemRedis != nil {
				defer idemRedis.Close()
			}
		}
		orderService.SetIdempotencyStore(store, shared.IdempotencyConfig{
			Enabled: true,
			TTL:     cfg.Idempotency.TTL,
		})
	}

	// Background reconciliation
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Enabled = cfg.Reconcile.Enabled
	schedCfg.Interval = cfg.Reconcile.Interval
	reconcileScheduler := scheduler.NewScheduler(schedCfg, scheduler.NewReconcileExecutor(reconcileService, log), log)
	if err := reconcileScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
	}

	// HTTP
	systemHandler := handler.NewSystemHandler(version, reconcileScheduler)
	systemHandler.AddReadinessCheck("database", db.Ping)
	if redisClient != nil {
		systemHandler.AddReadinessCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine, cleanupEngine, err := router.NewEngine(router.EngineOptions{
		Config: cfg,
		Logger: log,
		Handlers: router.Handlers{
			Placements:        handler.NewPlacementHandler(ledgerService),
			StockTransactions: handler.NewStockTransactionHandler(ledgerService),
			StockAudits:       handler.NewStockAuditHandler(auditService),
			Products:          handler.NewProductHandler(productService, projectionService),
			Orders:            handler.NewOrderHandler(orderService),
			System:            systemHandler,
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cleanupEngine()

	if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping reconcile scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Error closing Kafka publisher", zap.Error(err))
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited")
}

// newLocker builds the process or distributed lock selected by
// stock_lock.strategy. Row locks are always taken by the repositories on top
// of it. The Redis client is returned so the caller can ping and close it.
func newLocker(ctx context.Context, cfg *config.Config, redisCfg cache.RedisConfig, log *zap.Logger) (shared.ResourceLocker, *redis.Client) {
	switch cfg.StockLock.Strategy {
	case config.LockStrategyMutex:
		log.Info("Using in-process keyed mutex for stock locks",
			zap.Duration("wait_timeout", cfg.StockLock.WaitTimeout))
		return lock.NewKeyedMutex(cfg.StockLock.WaitTimeout), nil
	case config.LockStrategyRedis:
		client, err := cache.NewRedisClient(ctx, redisCfg)
		if err != nil {
			log.Fatal("Redis lock strategy selected but Redis is unavailable", zap.Error(err))
		}
		log.Info("Using Redis distributed stock locks", zap.String("addr", client.Options().Addr))
		return lock.NewRedisLocker(client, lock.RedisLockerConfig{
			KeyPrefix:   cfg.StockLock.KeyPrefix,
			TTL:         cfg.StockLock.TTL,
			WaitTimeout: cfg.StockLock.WaitTimeout,
			RetryDelay:  25 * time.Millisecond,
		}), client
	default:
		if cfg.Database.Driver == config.DriverSQLite {
			// sqlite ignores FOR UPDATE, so the process mutex is the only guard
			log.Warn("Row locks are unavailable on sqlite; using keyed mutex")
			return lock.NewKeyedMutex(cfg.StockLock.WaitTimeout), nil
		}
		return lock.NewNoopLocker(), nil
	}
}
