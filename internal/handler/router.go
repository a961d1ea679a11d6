// Package handler wires the HTTP API: routing, request decoding, and the
// mapping from domain errors to status codes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/port"
	"github.com/luisherrera/finances-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports storage health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the router depends on.
type Services struct {
	Ledger          *service.LedgerService
	Budget          *service.BudgetService
	Insights        *service.InsightService
	Contexts        *service.ContextService
	Recommendations *service.RecommendationService
	Goals           *service.GoalService
	Generator       port.RecommendationGenerator
	Rag             port.DocumentIndexer
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, store Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Accounts
		r.Post("/accounts", createAccountHandler(svcs.Ledger, logger))
		r.Get("/accounts", listAccountsHandler(svcs.Ledger, logger))
		r.Get("/accounts/{accountName}", getAccountHandler(svcs.Ledger, logger))
		r.Put("/accounts/{accountName}/opening-balance", updateOpeningBalanceHandler(svcs.Ledger, logger))

		// Transactions
		r.Post("/transactions", recordTransactionHandler(svcs.Ledger, logger))
		r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Ledger, logger))
		r.Get("/accounts/{accountName}/transactions", listTransactionsHandler(svcs.Ledger, logger))

		// Planned movements
		r.Post("/planned-movements", createPlannedMovementHandler(svcs.Ledger, logger))
		r.Delete("/planned-movements/{movementId}", deletePlannedMovementHandler(svcs.Ledger, logger))
		r.Get("/accounts/{accountName}/planned-movements", listPlannedMovementsHandler(svcs.Ledger, logger))

		// Budget aggregation
		r.Get("/accounts/{accountName}/budget/summary", budgetSummaryHandler(svcs.Budget, logger))
		r.Get("/accounts/{accountName}/budget/monthly", budgetMonthlyHandler(svcs.Budget, logger))

		// Dashboard insights
		r.Get("/accounts/{accountName}/insights", insightsHandler(svcs.Insights, logger))

		// Financial goals
		r.Post("/goals", createGoalHandler(svcs.Goals, logger))
		r.Post("/goals/{goalId}/progress", addGoalProgressHandler(svcs.Goals, logger))
		r.Get("/accounts/{accountName}/goals", listGoalsHandler(svcs.Goals, logger))

		// AI consultation
		r.Post("/ai/context", buildContextHandler(svcs.Contexts, logger))
		r.Post("/ai/chat", chatHandler(svcs.Contexts, svcs.Generator, logger))
		r.Post("/ai/rag", uploadRagDocumentHandler(svcs.Rag, logger))
		r.Get("/accounts/{accountName}/recommendation", latestRecommendationHandler(svcs.Recommendations, logger))

		// Engine metrics snapshot
		r.Get("/metrics/engine", engineMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)

		status := "healthy"
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				status = "degraded"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{
			"status":     status,
			"checked_at": now,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
