package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/config"
	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/handler"
	"github.com/luisherrera/finances-go/internal/infra/cache"
	"github.com/luisherrera/finances-go/internal/infra/client"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/infra/resilience"
	"github.com/luisherrera/finances-go/internal/infra/store"
	"github.com/luisherrera/finances-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("generator_timeout", cfg.GeneratorTimeout),
		zap.Bool("generator_fallback", cfg.GeneratorFallback),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("recommendations_enabled", cfg.RecommendationsEnabled),
		zap.Duration("recommendation_interval", cfg.RecommendationInterval),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finances-go")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	// --- Cache ---
	snapshots := cache.New[*domain.RecommendationSnapshot]()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	cb := resilience.NewCircuitBreaker("generator")

	// --- Generators ---
	httpClient := &http.Client{Timeout: cfg.GeneratorTimeout}
	remote := client.NewGeneratorClient(cfg.GeneratorBaseURL, cfg.GeneratorAPIKey,
		httpClient, cb, resilienceCfg, metrics, logger)
	fallback := service.NewFallbackGenerator(logger)
	generator := client.NewResilientGenerator(remote, fallback,
		cfg.GeneratorFallback, cfg.GeneratorModel, metrics, logger)

	// --- RAG client ---
	rag := client.NewRagClient(cfg.RagBaseURL, cfg.RagAPIKey,
		&http.Client{Timeout: cfg.RagTimeout}, metrics, logger)

	// --- Services ---
	budgetSvc := service.NewBudgetService(db, db, db, logger)
	insightSvc := service.NewInsightService(budgetSvc, db, metrics, logger)
	contextSvc := service.NewContextService(db, db, logger)
	recommendSvc := service.NewRecommendationService(
		service.RecommenderConfig{
			Enabled:      cfg.RecommendationsEnabled,
			Interval:     cfg.RecommendationInterval,
			LookbackDays: cfg.RecommendationLookback,
			CategoryKind: cfg.RecommendationKind,
			Prompt:       cfg.RecommendationPrompt,
		},
		db, contextSvc, generator, snapshots, metrics, logger,
	)
	ledgerSvc := service.NewLedgerService(db, recommendSvc, logger)
	goalSvc := service.NewGoalService(db, logger)

	// --- Scheduler ---
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go recommendSvc.Run(schedulerCtx)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Ledger:          ledgerSvc,
		Budget:          budgetSvc,
		Insights:        insightSvc,
		Contexts:        contextSvc,
		Recommendations: recommendSvc,
		Goals:           goalSvc,
		Generator:       generator,
		Rag:             rag,
	}, db, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
