package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/ledger/acl"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/cache"
	"github.com/openbooks/backend/internal/infrastructure/config"
	"github.com/openbooks/backend/internal/infrastructure/logger"
	"github.com/openbooks/backend/internal/infrastructure/persistence"
	"github.com/openbooks/backend/internal/infrastructure/statement"
	"github.com/openbooks/backend/internal/infrastructure/tax"
	"github.com/openbooks/backend/internal/infrastructure/telemetry"
	"github.com/openbooks/backend/internal/interfaces/http/handler"
	"github.com/openbooks/backend/internal/interfaces/http/middleware"
	"github.com/openbooks/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
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

	log.Info("Starting OpenBooks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := db.EnableTracing(); err != nil {
			log.Fatal("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Redis backs the HTTP idempotency keys; fall back to the in-process
	// store when Redis is unreachable in development
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	taxEngine, err := tax.NewFlatRateEngine(cfg.Tax.Jurisdiction, decimal.NewFromFloat(cfg.Tax.Rate))
	if err != nil {
		log.Fatal("Failed to initialize tax engine", zap.Error(err))
	}

	var statementSource acl.StatementSource
	if cfg.Statement.Dir != "" {
		dir := cfg.Statement.Dir
		statementSource = statement.NewCSVSource(func(_ context.Context, bankAccountID uuid.UUID) (io.ReadCloser, error) {
			return os.Open(filepath.Join(dir, bankAccountID.String()+".csv"))
		}, cfg.Statement.Currency)
	}

	// Domain services
	postingService := ledger.NewPostingService()
	allocationService := ledger.NewAllocationService(
		ledger.WithReconcileTolerance(decimal.NewFromFloat(cfg.Ledger.ReconcileTolerance)),
	)
	matchingService := ledger.NewMatchingService(
		ledger.WithWindowDays(cfg.Ledger.MatchWindowDays),
		ledger.WithAmountTolerance(decimal.NewFromFloat(cfg.Ledger.MatchTolerance)),
	)

	// Application services
	uow := persistence.NewGormUnitOfWork(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	resolver := appledger.NewRoleAccountResolver(accountRepo)

	accountSvc := appledger.NewChartOfAccountsService(accountRepo)
	docPostingSvc := appledger.NewDocumentPostingService(uow, postingService, resolver, log)
	obligationSvc := appledger.NewObligationService(uow, docPostingSvc, taxEngine, log)
	allocationSvc := appledger.NewBankAllocationService(uow, allocationService, resolver, log)
	reconciliationSvc := appledger.NewReconciliationService(uow, matchingService, log)
	statementSvc := appledger.NewStatementService(uow, statementSource, log)
	querySvc := appledger.NewJournalQueryService(uow)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	r := router.NewRouter(engine, router.WithHealthCheck(db.Ping))
	r.Register(handler.NewAccountHandler(accountSvc))
	r.Register(handler.NewObligationHandler(obligationSvc, docPostingSvc))
	r.Register(handler.NewBankHandler(statementSvc))
	r.Register(handler.NewReconciliationHandler(allocationSvc, reconciliationSvc, querySvc))
	r.Register(handler.NewJournalHandler(querySvc))
	r.Setup(
		middleware.RequireTenant(),
		middleware.Idempotency(idempotencyStore, cfg.Ledger.IdempotencyTTL),
	)

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
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
