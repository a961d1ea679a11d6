package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/service"
)

// ============================================================
// Planned Movements Handlers
// ============================================================

type createPlannedMovementRequest struct {
	AccountName string          `json:"account_name"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Recurrence  string          `json:"recurrence"`
	StartDate   string          `json:"start_date"`
	Active      *bool           `json:"active"`
}

func createPlannedMovementHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /planned-movements")
		defer span.End()

		var req createPlannedMovementRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		startDate, err := time.ParseInLocation(domain.DateOnly, req.StartDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be a YYYY-MM-DD date")
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}

		pm, err := svc.CreatePlannedMovement(ctx, req.AccountName, req.Name, req.Amount,
			domain.PlannedMovementKind(req.Kind), domain.Recurrence(req.Recurrence), startDate, active)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, pm)
	}
}

func listPlannedMovementsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/planned-movements")
		defer span.End()

		movements, err := svc.ListPlannedMovements(ctx, chi.URLParam(r, "accountName"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, movements)
	}
}

func deletePlannedMovementHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /planned-movements/{movementId}")
		defer span.End()

		if err := svc.DeletePlannedMovement(ctx, chi.URLParam(r, "movementId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
