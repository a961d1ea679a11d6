package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/service"
)

// ============================================================
// Dashboard Insights Handlers
// ============================================================

func insightsHandler(svc *service.InsightService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/insights")
		defer span.End()

		start, end, err := requireDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		insights, err := svc.BuildInsights(ctx, chi.URLParam(r, "accountName"), start, end)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, insights)
	}
}
