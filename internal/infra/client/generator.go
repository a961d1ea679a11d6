// Package client implements the outbound HTTP adapter for the external
// recommendation generator, with circuit breaking and retry around the call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/client")

// GeneratorClient calls the external recommendation generator over HTTP.
// Every call goes through the circuit breaker; inside it, transient failures
// are retried with exponential backoff.
type GeneratorClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	retry      resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewGeneratorClient creates the HTTP generator client. The http.Client's
// timeout bounds each individual attempt.
func NewGeneratorClient(
	baseURL, apiKey string,
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker,
	retry resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *GeneratorClient {
	return &GeneratorClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		breaker:    breaker,
		retry:      retry,
		metrics:    metrics,
		logger:     logger,
	}
}

// Generate sends the request to POST {base}/v1/chat and decodes the reply.
func (c *GeneratorClient) Generate(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "GeneratorClient.Generate")
	defer span.End()

	start := time.Now()
	defer func() {
		c.metrics.RecordRequestDuration("generator_generate", time.Since(start))
	}()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var resp *domain.ChatResponse
		retryErr := resilience.RetryWithBackoff(ctx, c.retry, func() error {
			r, callErr := c.doCall(ctx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
		return resp, retryErr
	})
	if err != nil {
		c.metrics.IncrExternalError("generator")
		return nil, c.classify(err)
	}

	return result.(*domain.ChatResponse), nil
}

func (c *GeneratorClient) doCall(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-KEY", c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling generator: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("generator returned status %d", httpResp.StatusCode)
	}

	var resp domain.ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding generator response: %w", err)
	}
	if strings.TrimSpace(resp.Reply) == "" {
		return nil, errors.New("generator returned an empty reply")
	}
	if resp.RespondedAt.IsZero() {
		resp.RespondedAt = time.Now().UTC()
	}
	return &resp, nil
}

func (c *GeneratorClient) classify(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("generator circuit open, request rejected")
		return &domain.ErrCircuitOpen{Service: "generator"}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "generator_generate"}
	default:
		c.logger.Warn("generator call failed", zap.Error(err))
		return &domain.ErrExternalService{Service: "generator", Err: err}
	}
}
