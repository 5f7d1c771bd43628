package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	importapp "github.com/kasapos/backend/internal/application/import"
	"github.com/kasapos/backend/internal/infrastructure/config"
	"github.com/kasapos/backend/internal/infrastructure/logger"
	"github.com/kasapos/backend/internal/infrastructure/persistence"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"github.com/kasapos/backend/internal/interfaces/http/handler"
	"github.com/kasapos/backend/internal/interfaces/http/middleware"
	"github.com/kasapos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: time.RFC3339,
		Fields:     map[string]string{"app": cfg.App.Name, "version": version},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	service := telemetry.ServiceInfo{
		Name:        cfg.Telemetry.ServiceName,
		Version:     version,
		Environment: cfg.App.Env,
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Service:           service,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		Service:           service,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Service:           service,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger provider: %w", err)
	}
	log = lp.Bridge(log, zapcore.InfoLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown logger provider", zap.Error(err))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown meter provider", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewCatalogMetrics(mp.Meter("kasapos/catalog"))
	if err != nil {
		return fmt.Errorf("failed to create catalog metrics: %w", err)
	}

	store, err := persistence.OpenCatalogStore(ctx, &cfg.Database,
		persistence.WithLogger(log),
		persistence.WithMetrics(metrics),
		persistence.WithDegradationLimit(cfg.Database.DegradationLog),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL: cfg.Telemetry.DBLogFullSQL,
			DBSystem:   "sqlite",
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to open catalog store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close catalog store", zap.Error(err))
		}
	}()

	caps := store.Capabilities()
	log.Info("Catalog store opened",
		zap.String("path", cfg.Database.Path),
		zap.Bool("degraded", caps.Degraded()),
		zap.Strings("missing_indexes", caps.Missing()),
	)

	imports := importapp.NewService(store, cfg.Import,
		importapp.WithServiceLogger(log),
		importapp.WithServiceMetrics(metrics),
		importapp.WithServiceHistory(store),
	)
	defer imports.Close()

	stream := handler.NewStockStreamHandler(store,
		handler.WithStreamLogger(log),
		handler.WithStreamHeartbeat(cfg.HTTP.SSEHeartbeat),
	)
	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start stock stream: %w", err)
	}
	defer stream.Stop()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:      log,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		CORS:        cors,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:       mp.Meter("kasapos/http"),
		QuietRoutes: []string{"/api/v1/system/health"},
	})
	if err != nil {
		return err
	}

	router.NewRouter(engine).
		Register(handler.NewProductHandler(store)).
		Register(handler.NewCategoryHandler(store)).
		Register(handler.NewGroupHandler(store)).
		Register(handler.NewImportHandler(imports)).
		Register(stream).
		Register(handler.NewSystemHandler(cfg.App.Name, version, store)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.String("name", cfg.App.Name),
			zap.String("version", version),
			zap.String("env", cfg.App.Env),
			zap.String("port", cfg.App.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	// open SSE streams end when the stream handler stops, so stop it first
	stream.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
