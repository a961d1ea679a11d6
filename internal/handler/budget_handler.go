package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/service"
)

// ============================================================
// Budget Handlers
// ============================================================

func budgetSummaryHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/budget/summary")
		defer span.End()

		start, end, err := requireDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.BuildSummary(ctx, chi.URLParam(r, "accountName"), start, end)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func budgetMonthlyHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/budget/monthly")
		defer span.End()

		year := time.Now().UTC().Year()
		if v := r.URL.Query().Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil || y < 1 {
				writeError(w, http.StatusBadRequest, "year must be a positive integer")
				return
			}
			year = y
		}

		months, err := svc.BuildMonthlySummary(ctx, chi.URLParam(r, "accountName"), year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, months)
	}
}
