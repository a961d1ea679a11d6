package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/port"
	"github.com/luisherrera/finances-go/internal/service"
)

// ============================================================
// AI Handlers
// ============================================================

type buildContextRequest struct {
	AccountName  string `json:"account_name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	CategoryKind string `json:"category_kind"`
}

func buildContextHandler(svc *service.ContextService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ai/context")
		defer span.End()

		var req buildContextRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.AccountName == "" {
			writeError(w, http.StatusBadRequest, "account_name is required")
			return
		}

		var startDate, endDate *time.Time
		for name, raw := range map[string]*string{"start_date": &req.StartDate, "end_date": &req.EndDate} {
			if *raw == "" {
				continue
			}
			t, err := time.ParseInLocation(domain.DateOnly, *raw, time.UTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a YYYY-MM-DD date", name))
				return
			}
			if name == "start_date" {
				startDate = &t
			} else {
				endDate = &t
			}
		}

		var kind *domain.CategoryKind
		if req.CategoryKind != "" {
			k, ok := domain.ParseCategoryKind(req.CategoryKind)
			if !ok {
				writeError(w, http.StatusBadRequest, "category_kind must be income or expense")
				return
			}
			kind = &k
		}

		fc, err := svc.BuildContext(ctx, req.AccountName, startDate, endDate, kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, fc)
	}
}

func chatHandler(contexts *service.ContextService, generator port.RecommendationGenerator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ai/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		enriched, err := contexts.EnrichChatRequest(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := generator.Generate(ctx, enriched)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func uploadRagDocumentHandler(indexer port.DocumentIndexer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ai/rag")
		defer span.End()

		var doc domain.RagDocument
		if err := decodeJSON(r, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		receipt, err := indexer.IndexDocument(ctx, &doc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	}
}

func latestRecommendationHandler(svc *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /accounts/{accountName}/recommendation")
		defer span.End()

		accountName := chi.URLParam(r, "accountName")
		snap, ok := svc.LatestRecommendation(accountName)
		if !ok {
			logger.Debug("no recommendation snapshot", zap.String("account", accountName))
			writeError(w, http.StatusNotFound, fmt.Sprintf("no recommendation available for account: %s", accountName))
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
