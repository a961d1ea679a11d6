package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/port"
)

var recommenderTracer = otel.Tracer("service/recommender")

// DefaultRecommendationPrompt is used when no prompt is configured.
const DefaultRecommendationPrompt = "Review the financial context and suggest concrete adjustments to planned and actual movements, plus an overall assessment."

// RecommenderConfig carries the generation-cycle settings.
type RecommenderConfig struct {
	Enabled      bool
	Interval     time.Duration
	LookbackDays int
	CategoryKind domain.CategoryKind
	Prompt       string
}

// RecommendationService keeps a per-account cache of AI recommendations warm.
// Generation runs on movement events and on a periodic timer; reads are
// served from the cache only and never trigger generation inline.
type RecommendationService struct {
	cfg       RecommenderConfig
	accounts  port.AccountDirectory
	contexts  *ContextService
	generator port.RecommendationGenerator
	snapshots port.SnapshotStore[*domain.RecommendationSnapshot]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRecommendationService creates the recommendation engine.
func NewRecommendationService(
	cfg RecommenderConfig,
	accounts port.AccountDirectory,
	contexts *ContextService,
	generator port.RecommendationGenerator,
	snapshots port.SnapshotStore[*domain.RecommendationSnapshot],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		cfg:       cfg,
		accounts:  accounts,
		contexts:  contexts,
		generator: generator,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
	}
}

// LatestRecommendation returns the cached snapshot for an account, or absence
// when no cycle has completed for it yet.
func (s *RecommendationService) LatestRecommendation(accountName string) (*domain.RecommendationSnapshot, bool) {
	if strings.TrimSpace(accountName) == "" {
		return nil, false
	}
	snap, ok := s.snapshots.Get(accountName)
	if !ok {
		s.metrics.IncrSnapshotMiss("recommendations")
		return nil, false
	}
	s.metrics.IncrSnapshotHit("recommendations")
	return snap, true
}

// OnMovementRecorded regenerates the recommendation for the account that just
// changed. It runs synchronously in the caller's flow; the caller decides
// whether a failure here matters.
func (s *RecommendationService) OnMovementRecorded(ctx context.Context, accountName string) error {
	if !s.cfg.Enabled {
		return nil
	}
	return s.refreshAccount(ctx, accountName)
}

// RefreshRecommendations regenerates recommendations for every known
// account, sequentially. A failing account is logged and skipped; the cycle
// continues with the rest.
func (s *RecommendationService) RefreshRecommendations(ctx context.Context) {
	ctx, span := recommenderTracer.Start(ctx, "RecommendationService.RefreshRecommendations")
	defer span.End()

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("listing accounts for recommendation refresh", zap.Error(err))
		s.metrics.IncrCycle("error")
		return
	}

	failed := 0
	for _, account := range accounts {
		if err := s.refreshAccount(ctx, account.Name); err != nil {
			failed++
			s.logger.Warn("recommendation refresh failed, keeping previous snapshot",
				zap.String("account", account.Name),
				zap.Error(err))
		}
	}
	if failed > 0 {
		s.metrics.IncrCycle("error")
		return
	}
	s.metrics.IncrCycle("success")
}

// Run drives the periodic refresh until the context is cancelled. One full
// refresh runs immediately at startup so the cache is warm before the first
// tick.
func (s *RecommendationService) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("scheduled recommendations disabled")
		return
	}

	s.logger.Info("recommendation scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("lookback_days", s.cfg.LookbackDays))

	s.RefreshRecommendations(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("recommendation scheduler stopped")
			return
		case <-ticker.C:
			s.RefreshRecommendations(ctx)
		}
	}
}

func (s *RecommendationService) refreshAccount(ctx context.Context, accountName string) error {
	ctx, span := recommenderTracer.Start(ctx, "RecommendationService.refreshAccount")
	defer span.End()

	end := domain.TruncateToDay(time.Now().UTC())
	lookback := s.cfg.LookbackDays
	if lookback < 1 {
		lookback = 1
	}
	start := end.AddDate(0, 0, -lookback)
	kind := s.cfg.CategoryKind

	fc, err := s.contexts.BuildContext(ctx, accountName, &start, &end, &kind)
	if err != nil {
		return err
	}

	prompt := s.cfg.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultRecommendationPrompt
	}

	resp, err := s.generator.Generate(ctx, &domain.ChatRequest{
		Message: prompt,
		Context: fc,
	})
	if err != nil {
		return err
	}

	s.snapshots.Put(accountName, &domain.RecommendationSnapshot{
		AccountName:    accountName,
		Context:        fc,
		Recommendation: resp.Reply,
		GeneratedAt:    resp.RespondedAt,
	})
	s.logger.Debug("recommendation snapshot replaced", zap.String("account", accountName))
	return nil
}
