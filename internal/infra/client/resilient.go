package client

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/port"
)

// ResilientGenerator wraps the remote generator with input validation and the
// fallback decision. Validation failures never reach the remote call or the
// fallback; transport failures are answered locally when fallback is enabled.
type ResilientGenerator struct {
	remote       port.RecommendationGenerator
	fallback     port.RecommendationGenerator
	useFallback  bool
	defaultModel string
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewResilientGenerator creates the decorator. fallback may be nil only when
// useFallback is false.
func NewResilientGenerator(
	remote, fallback port.RecommendationGenerator,
	useFallback bool,
	defaultModel string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ResilientGenerator {
	return &ResilientGenerator{
		remote:       remote,
		fallback:     fallback,
		useFallback:  useFallback,
		defaultModel: defaultModel,
		metrics:      metrics,
		logger:       logger,
	}
}

// Generate validates the request, defaults the model, and tries the remote
// generator. On remote failure it either answers from the local fallback or
// surfaces the failure, depending on configuration.
func (g *ResilientGenerator) Generate(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "must not be blank"}
	}

	effective := *req
	if strings.TrimSpace(effective.Model) == "" {
		effective.Model = g.defaultModel
	}

	resp, err := g.remote.Generate(ctx, &effective)
	if err == nil {
		return resp, nil
	}

	if !g.useFallback || g.fallback == nil {
		return nil, &domain.ErrGeneratorUnavailable{Err: err}
	}

	g.logger.Warn("remote generator failed, answering from local fallback", zap.Error(err))
	g.metrics.IncrFallback()
	return g.fallback.Generate(ctx, &effective)
}
