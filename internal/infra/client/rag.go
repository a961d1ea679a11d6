package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/observability"
)

const ragDocumentsPath = "/api/ext/rag/documents"

// RagClient pushes documents to the external RAG provider. Unlike the
// generator path there is no retry or breaker here: document uploads are
// user-initiated one-shots and the caller sees the failure directly.
type RagClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewRagClient creates the HTTP RAG client.
func NewRagClient(
	baseURL, apiKey string,
	httpClient *http.Client,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RagClient {
	return &RagClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		metrics:    metrics,
		logger:     logger,
	}
}

// IndexDocument sends the document to POST {base}/api/ext/rag/documents.
// A blank content is rejected before any call is made.
func (c *RagClient) IndexDocument(ctx context.Context, doc *domain.RagDocument) (*domain.RagReceipt, error) {
	ctx, span := tracer.Start(ctx, "RagClient.IndexDocument")
	defer span.End()

	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, &domain.ErrValidation{Field: "content", Message: "must not be blank"}
	}
	if c.baseURL == "" {
		return nil, &domain.ErrValidation{Field: "rag_base_url", Message: "not configured"}
	}

	start := time.Now()
	defer func() {
		c.metrics.RecordRequestDuration("rag_index_document", time.Since(start))
	}()

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding rag document: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ragDocumentsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rag request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-KEY", c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.IncrExternalError("rag")
		c.logger.Warn("rag call failed", zap.Error(err))
		return nil, &domain.ErrRagUnavailable{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(httpResp.Body, 4096))
		c.metrics.IncrExternalError("rag")
		c.logger.Warn("rag provider rejected document", zap.Int("status", httpResp.StatusCode))
		return nil, &domain.ErrRagUnavailable{Err: fmt.Errorf("rag provider returned status %d", httpResp.StatusCode)}
	}

	var receipt domain.RagReceipt
	if err := json.NewDecoder(httpResp.Body).Decode(&receipt); err != nil {
		c.metrics.IncrExternalError("rag")
		return nil, &domain.ErrRagUnavailable{Err: fmt.Errorf("decoding rag response: %w", err)}
	}
	return &receipt, nil
}
