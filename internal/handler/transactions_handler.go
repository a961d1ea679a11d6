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
// Transactions Handlers
// ============================================================

type recordTransactionRequest struct {
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Kind        string          `json:"kind"`
}

func recordTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /transactions")
		defer span.End()

		var req recordTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		date, err := time.ParseInLocation(domain.DateOnly, req.Date, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be a YYYY-MM-DD date")
			return
		}

		tx, err := svc.RecordTransaction(ctx, req.AccountName, req.Amount, date,
			req.Description, req.Category, domain.CategoryKind(req.Kind))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func deleteTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /transactions/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listTransactionsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/transactions")
		defer span.End()

		start, end, err := requireDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		txns, err := svc.ListTransactions(ctx, chi.URLParam(r, "accountName"), start, end)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txns)
	}
}
