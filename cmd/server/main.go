package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		DBSystem: dbSystem,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", dbSystem))

	location, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal("Invalid ledger timezone", zap.String("timezone", cfg.Ledger.Timezone), zap.Error(err))
	}

	reports, err := cache.NewReportCacheFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create report cache", zap.Error(err))
	}
	if closer, ok := reports.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	metrics := telemetry.NewLedgerMetrics()

	records := persistence.NewGormLedgerRecordRepository(db.DB)
	mappings := persistence.NewGormCategoryMappingRepository(db.DB)
	settlements := persistence.NewGormSettlementRepository(db.DB)
	auditLogs := persistence.NewGormAuditLogRepository(db.DB)

	opts := []financeapp.Option{
		financeapp.WithLocation(location),
		financeapp.WithMetrics(metrics),
		financeapp.WithAuditLog(auditLogs),
	}
	if reports != nil {
		opts = append(opts, financeapp.WithReportCache(reports))
	}

	stagingService := financeapp.NewStagingService(records)
	commitService := financeapp.NewCommitService(records, cfg.Ledger.CommitBatchSize, cfg.Ledger.CommitConcurrency, opts...)
	categoryService := financeapp.NewCategoryService(mappings, records, opts...)
	reportService := financeapp.NewReportService(records, mappings, opts...)
	debtorService := financeapp.NewDebtorService(records, opts...)
	settlementService := financeapp.NewSettlementService(settlements, records, opts...)
	auditService := financeapp.NewAuditService(auditLogs)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.EngineConfig{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		Logger:  log,
		Metrics: metrics,
	})

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	importer := csvimport.NewImporter(csvimport.WithMaxFileSize(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterRoot(handler.NewSystemHandler(sqlDB)).
		Register(handler.NewLedgerHandler(importer, stagingService, commitService)).
		Register(handler.NewCategoryHandler(categoryService)).
		Register(handler.NewReportHandler(reportService, debtorService)).
		Register(handler.NewSettlementHandler(settlementService)).
		Register(handler.NewAuditHandler(auditService))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
