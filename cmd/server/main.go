package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/application/catalog"
	"github.com/zava/retail-backend/internal/application/identity"
	"github.com/zava/retail-backend/internal/application/management"
	"github.com/zava/retail-backend/internal/application/restock"
	"github.com/zava/retail-backend/internal/infrastructure/auth"
	"github.com/zava/retail-backend/internal/infrastructure/cache"
	"github.com/zava/retail-backend/internal/infrastructure/config"
	"github.com/zava/retail-backend/internal/infrastructure/llm"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/mcptool"
	"github.com/zava/retail-backend/internal/infrastructure/persistence"
	"github.com/zava/retail-backend/internal/infrastructure/storage"
	"github.com/zava/retail-backend/internal/infrastructure/telemetry"
	"github.com/zava/retail-backend/internal/interfaces/http/handler"
	"github.com/zava/retail-backend/internal/interfaces/http/middleware"
	"github.com/zava/retail-backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Zava Retail API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize log export, continuing without it", zap.Error(err))
	} else if logsProvider.IsEnabled() {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := logsProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down logs provider", zap.Error(err))
			}
		}()
		bridged, err := telemetry.CreateBridgedLoggerFromConfig(&telemetry.BaseLoggerConfig{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			Output:     cfg.Log.Output,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		}, logsProvider, cfg.Telemetry.ServiceName)
		if err != nil {
			log.Warn("Failed to bridge logs to the collector", zap.Error(err))
		} else {
			log = bridged
			log.Info("Logs bridged to OTEL collector",
				zap.String("endpoint", cfg.Telemetry.CollectorEndpoint))
		}
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize metrics, continuing without them", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Warn("Failed to start continuous profiling", zap.Error(err))
	} else {
		defer func() {
			_ = profiler.Stop()
		}()
		if profiler.IsEnabled() && tracerProvider != nil {
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to enable span profiles", zap.Error(err))
			}
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.Enabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.DBSystem = cfg.Database.Driver
		plugin := telemetry.NewDBTracingPlugin(tracingCfg, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	cacheStore := newCacheStore(cfg, log)
	defer func() {
		_ = cacheStore.Close()
	}()

	storeRepo := persistence.NewGormStoreRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryReportRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	tokens := auth.NewJWTService(cfg.JWT)

	imageStore, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	identityService := identity.NewService(userRepo, storeRepo, tokens)
	catalogService := catalog.NewService(storeRepo, categoryRepo, productRepo, cacheStore,
		catalog.WithImageResolver(imageStore))
	managementService := management.NewService(inventoryRepo, supplierRepo, productRepo, cacheStore)
	restockService := restock.NewService(newCompleter(cfg, log), newFinanceTools(ctx, cfg, log))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
	}))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	router.NewRouter(engine).
		Register(handler.NewAuthHandler(identityService)).
		Register(handler.NewCatalogHandler(catalogService)).
		Register(handler.NewManagementHandler(managementService, tokens)).
		RegisterRoot(handler.NewSystemHandler(db.DB)).
		RegisterRoot(handler.NewAgentHandler(restockService)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// newCacheStore returns the Redis response cache when configured, falling
// back to the in-process store otherwise.
func newCacheStore(cfg *config.Config, log *zap.Logger) cache.Store {
	if !cfg.Redis.Enabled {
		return cache.NewInMemoryStore()
	}
	store, err := cache.NewRedisStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory response cache", zap.Error(err))
		return cache.NewInMemoryStore()
	}
	log.Info("Using Redis response cache",
		zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	return store
}

// newCompleter returns the chat client, or a stub that reports the agent
// as unconfigured so the WebSocket workflow fails cleanly instead of at
// process start.
func newCompleter(cfg *config.Config, log *zap.Logger) llm.Completer {
	client, err := llm.NewChatClient(cfg.LLM)
	if err != nil {
		log.Warn("LLM not configured, inventory agent will report errors", zap.Error(err))
		return unconfiguredCompleter{}
	}
	return client
}

type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, llm.ErrNotConfigured
}

// newFinanceTools connects to the finance MCP server used by the
// restocking agent. The agent runs without tools when the server is
// unreachable at startup.
func newFinanceTools(ctx context.Context, cfg *config.Config, log *zap.Logger) llm.ToolSet {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tools, err := mcptool.NewToolSet(connectCtx, mcptool.Config{
		Name:      "finance",
		URL:       cfg.MCP.FinanceURL,
		RLSUserID: cfg.MCP.RLSUserID,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		log.Warn("Finance tool server unavailable, agent runs without tools",
			zap.String("url", cfg.MCP.FinanceURL), zap.Error(err))
		return nil
	}
	log.Info("Connected to finance tool server", zap.String("url", cfg.MCP.FinanceURL))
	return tools
}
