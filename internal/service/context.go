package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/port"
)

var contextTracer = otel.Tracer("service/context")

// ContextService builds and enriches the financial context snapshots that
// ground an AI consultation in live ledger state. It never overwrites
// caller-supplied non-empty data.
type ContextService struct {
	ledger  port.LedgerReader
	planned port.PlannedMovementReader
	logger  *zap.Logger
}

// NewContextService creates the context assembler.
func NewContextService(ledger port.LedgerReader, planned port.PlannedMovementReader, logger *zap.Logger) *ContextService {
	return &ContextService{
		ledger:  ledger,
		planned: planned,
		logger:  logger,
	}
}

// BuildContext assembles a full context from the backend. Balance and
// planned movements are always fetched; category totals only when a kind is
// supplied; transactions only when both dates are supplied. The independent
// reads run concurrently.
func (s *ContextService) BuildContext(
	ctx context.Context,
	accountName string,
	startDate, endDate *time.Time,
	kind *domain.CategoryKind,
) (*domain.FinancialContext, error) {
	ctx, span := contextTracer.Start(ctx, "ContextService.BuildContext")
	defer span.End()

	var (
		balance   decimal.Decimal
		totals    map[string]decimal.Decimal
		txns      []domain.TransactionSummary
		movements []domain.PlannedMovementSummary
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := s.ledger.Balance(gCtx, accountName)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})

	g.Go(func() error {
		if kind == nil {
			totals = map[string]decimal.Decimal{}
			return nil
		}
		t, err := s.ledger.TotalsByCategory(gCtx, accountName, *kind)
		if err != nil {
			return err
		}
		totals = t
		return nil
	})

	g.Go(func() error {
		if startDate == nil || endDate == nil {
			txns = []domain.TransactionSummary{}
			return nil
		}
		list, err := s.ledger.Transactions(gCtx, accountName, *startDate, *endDate)
		if err != nil {
			return err
		}
		txns = toTransactionSummaries(list)
		return nil
	})

	g.Go(func() error {
		list, err := s.planned.ListPlannedMovements(gCtx, accountName)
		if err != nil {
			return err
		}
		movements = toPlannedSummaries(list)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.FinancialContext{
		AccountName:        accountName,
		StartDate:          startDate,
		EndDate:            endDate,
		CategoryKind:       kind,
		Balance:            &balance,
		TotalsByCategory:   totals,
		RecentTransactions: txns,
		PlannedMovements:   movements,
	}, nil
}

// EnrichContext fills the gaps in a caller-supplied context. A nil or
// account-less context passes through unchanged. Balance and totals are
// recomputed only when nil. Transactions and planned movements are
// recomputed when the caller-supplied list is nil, or when it is empty AND
// balance or totals needed refreshing: an empty list from a caller whose
// other fields were complete is trusted as "truly zero results", while an
// empty list next to missing data is treated as an omission.
func (s *ContextService) EnrichContext(ctx context.Context, c *domain.FinancialContext) (*domain.FinancialContext, error) {
	if c == nil {
		return nil, nil
	}
	if strings.TrimSpace(c.AccountName) == "" {
		return c, nil
	}

	ctx, span := contextTracer.Start(ctx, "ContextService.EnrichContext")
	defer span.End()

	needsRefresh := c.Balance == nil || c.TotalsByCategory == nil

	balance := c.Balance
	if balance == nil {
		b, err := s.ledger.Balance(ctx, c.AccountName)
		if err != nil {
			return nil, err
		}
		balance = &b
	}

	totals := c.TotalsByCategory
	if totals == nil && c.CategoryKind != nil {
		t, err := s.ledger.TotalsByCategory(ctx, c.AccountName, *c.CategoryKind)
		if err != nil {
			return nil, err
		}
		totals = t
	}

	txns, err := s.resolveTransactions(ctx, c, needsRefresh)
	if err != nil {
		return nil, err
	}

	movements, err := s.resolvePlannedMovements(ctx, c, needsRefresh)
	if err != nil {
		return nil, err
	}

	return &domain.FinancialContext{
		AccountName:        c.AccountName,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		CategoryKind:       c.CategoryKind,
		Balance:            balance,
		TotalsByCategory:   totals,
		RecentTransactions: txns,
		PlannedMovements:   movements,
	}, nil
}

// EnrichChatRequest enriches the request's context. When enrichment changes
// nothing, the original request is returned untouched to avoid needless
// object churn downstream.
func (s *ContextService) EnrichChatRequest(ctx context.Context, req *domain.ChatRequest) (*domain.ChatRequest, error) {
	if req == nil {
		return nil, nil
	}

	enriched, err := s.EnrichContext(ctx, req.Context)
	if err != nil {
		return nil, err
	}
	if enriched.Equal(req.Context) {
		return req, nil
	}

	return &domain.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		Model:     req.Model,
		Context:   enriched,
	}, nil
}

func (s *ContextService) resolveTransactions(ctx context.Context, c *domain.FinancialContext, needsRefresh bool) ([]domain.TransactionSummary, error) {
	current := c.RecentTransactions
	if current != nil && !(needsRefresh && len(current) == 0) {
		return current, nil
	}
	if c.StartDate == nil || c.EndDate == nil {
		return []domain.TransactionSummary{}, nil
	}
	list, err := s.ledger.Transactions(ctx, c.AccountName, *c.StartDate, *c.EndDate)
	if err != nil {
		return nil, err
	}
	return toTransactionSummaries(list), nil
}

func (s *ContextService) resolvePlannedMovements(ctx context.Context, c *domain.FinancialContext, needsRefresh bool) ([]domain.PlannedMovementSummary, error) {
	current := c.PlannedMovements
	if current != nil && !(needsRefresh && len(current) == 0) {
		return current, nil
	}
	list, err := s.planned.ListPlannedMovements(ctx, c.AccountName)
	if err != nil {
		return nil, err
	}
	return toPlannedSummaries(list), nil
}

func toTransactionSummaries(txns []domain.Transaction) []domain.TransactionSummary {
	out := make([]domain.TransactionSummary, 0, len(txns))
	for _, tx := range txns {
		out = append(out, domain.TransactionSummary{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Date:        tx.Date,
			Description: tx.Description,
			Category:    tx.CategoryName,
			Kind:        tx.CategoryKind,
		})
	}
	return out
}

func toPlannedSummaries(movements []domain.PlannedMovement) []domain.PlannedMovementSummary {
	out := make([]domain.PlannedMovementSummary, 0, len(movements))
	for _, pm := range movements {
		out = append(out, domain.PlannedMovementSummary{
			Name:      pm.Name,
			Kind:      pm.Kind,
			Amount:    pm.Amount,
			StartDate: pm.StartDate,
			Active:    pm.Active,
		})
	}
	return out
}
