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
// Financial Goals Handlers
// ============================================================

type createGoalRequest struct {
	AccountName   string           `json:"account_name"`
	Name          string           `json:"name"`
	TargetAmount  decimal.Decimal  `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	TargetDate    string           `json:"target_date"`
	Description   string           `json:"description"`
}

type goalProgressRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func createGoalHandler(svc *service.GoalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /goals")
		defer span.End()

		var req createGoalRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		targetDate, err := time.ParseInLocation(domain.DateOnly, req.TargetDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "target_date must be a YYYY-MM-DD date")
			return
		}

		goal, err := svc.CreateGoal(ctx, req.AccountName, req.Name, req.TargetAmount,
			req.CurrentAmount, targetDate, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, goal)
	}
}

func listGoalsHandler(svc *service.GoalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/goals")
		defer span.End()

		goals, err := svc.ListGoals(ctx, chi.URLParam(r, "accountName"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func addGoalProgressHandler(svc *service.GoalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /goals/{goalId}/progress")
		defer span.End()

		var req goalProgressRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		goal, err := svc.AddProgress(ctx, chi.URLParam(r, "goalId"), req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	}
}
