package integration_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/cache"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/infra/store"
	"github.com/luisherrera/finances-go/internal/service"
)

// localGenerator answers every request locally so the whole stack runs
// without network access.
type localGenerator struct {
	replies int
}

func (g *localGenerator) Generate(_ context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	g.replies++
	return &domain.ChatResponse{
		SessionID:   "it-session",
		Reply:       "reviewed: " + req.Message,
		RespondedAt: time.Now().UTC(),
	}, nil
}

type stack struct {
	store       *store.SQLite
	ledger      *service.LedgerService
	budget      *service.BudgetService
	insights    *service.InsightService
	recommender *service.RecommendationService
	generator   *localGenerator
	snapshots   *cache.Store[*domain.RecommendationSnapshot]
}

func newStack(t *testing.T) *stack {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "finances.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	gen := &localGenerator{}
	snapshots := cache.New[*domain.RecommendationSnapshot]()

	budget := service.NewBudgetService(db, db, db, logger)
	insights := service.NewInsightService(budget, db, metrics, logger)
	contexts := service.NewContextService(db, db, logger)
	recommender := service.NewRecommendationService(
		service.RecommenderConfig{
			Enabled:      true,
			Interval:     time.Hour,
			LookbackDays: 30,
			CategoryKind: domain.KindExpense,
		},
		db, contexts, gen, snapshots, metrics, logger,
	)
	ledger := service.NewLedgerService(db, recommender, logger)

	return &stack{
		store:       db,
		ledger:      ledger,
		budget:      budget,
		insights:    insights,
		recommender: recommender,
		generator:   gen,
		snapshots:   snapshots,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedReferenceAccount loads the canonical fixture: opening balance 1000,
// payroll 2000 and fixed expense 800 planned, one 500 income and one 100
// expense inside March 2025.
func seedReferenceAccount(t *testing.T, s *stack) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.ledger.CreateAccount(ctx, "Main", "EUR", dec("1000")); err != nil {
		t.Fatalf("creating account: %v", err)
	}
	if _, err := s.ledger.CreatePlannedMovement(ctx, "Main", "payroll", dec("2000"),
		domain.PlannedPayroll, domain.RecurrenceMonthly, date(2025, time.January, 1), true); err != nil {
		t.Fatalf("creating payroll: %v", err)
	}
	if _, err := s.ledger.CreatePlannedMovement(ctx, "Main", "rent", dec("800"),
		domain.PlannedFixedExpense, domain.RecurrenceMonthly, date(2025, time.January, 1), true); err != nil {
		t.Fatalf("creating rent plan: %v", err)
	}
	if _, err := s.ledger.RecordTransaction(ctx, "Main", dec("500"),
		date(2025, time.March, 10), "advance", "salary", domain.KindIncome); err != nil {
		t.Fatalf("recording income: %v", err)
	}
	if _, err := s.ledger.RecordTransaction(ctx, "Main", dec("100"),
		date(2025, time.March, 15), "groceries", "food", domain.KindExpense); err != nil {
		t.Fatalf("recording expense: %v", err)
	}
}

func TestBudgetSummary_EndToEnd(t *testing.T) {
	s := newStack(t)
	seedReferenceAccount(t, s)

	summary, err := s.budget.BuildSummary(context.Background(), "Main",
		date(2025, time.March, 1), date(2025, time.March, 31))
	if err != nil {
		t.Fatalf("building summary: %v", err)
	}

	if got := summary.ExpectedBalance.StringFixed(2); got != "2200.00" {
		t.Errorf("expected balance 2200.00, got %s", got)
	}
	if got := summary.ActualBalance.StringFixed(2); got != "1400.00" {
		t.Errorf("actual balance 1400.00, got %s", got)
	}
	if got := summary.FixedIncome.StringFixed(2); got != "2000.00" {
		t.Errorf("fixed income 2000.00, got %s", got)
	}
	if got := summary.FixedExpense.StringFixed(2); got != "800.00" {
		t.Errorf("fixed expense 800.00, got %s", got)
	}
}

func TestInsights_EndToEnd(t *testing.T) {
	s := newStack(t)
	seedReferenceAccount(t, s)

	insights, err := s.insights.BuildInsights(context.Background(), "Main",
		date(2025, time.March, 1), date(2025, time.March, 31))
	if err != nil {
		t.Fatalf("building insights: %v", err)
	}

	if got := insights.NetCashflow.StringFixed(2); got != "400.00" {
		t.Errorf("net cashflow 400.00, got %s", got)
	}
	// 400/500 = 0.8 -> 80%
	if got := insights.SavingsRate.StringFixed(2); got != "80.00" {
		t.Errorf("savings rate 80.00, got %s", got)
	}
	if insights.TransactionCount != 2 {
		t.Errorf("expected 2 transactions, got %d", insights.TransactionCount)
	}
	if insights.TopExpenseCategory == nil || insights.TopExpenseCategory.Name != "food" {
		t.Errorf("expected top category food, got %v", insights.TopExpenseCategory)
	}
	// actual 1400 vs expected 2200: variance -800 against threshold 220.
	if insights.ReconciliationStatus != domain.ReconciliationWarn {
		t.Errorf("expected reconciliation warn, got %s", insights.ReconciliationStatus)
	}
	foundBelowPlan := false
	for _, alert := range insights.Alerts {
		if alert.Title == "Balance below plan" {
			foundBelowPlan = true
		}
	}
	if !foundBelowPlan {
		t.Errorf("expected a balance-below-plan alert, got %v", insights.Alerts)
	}
}

func TestMovementEventKeepsRecommendationFresh(t *testing.T) {
	s := newStack(t)
	seedReferenceAccount(t, s)

	// Seeding recorded two transactions, each triggering a generation cycle.
	if s.generator.replies != 2 {
		t.Fatalf("expected 2 generation cycles during seeding, got %d", s.generator.replies)
	}

	snap, ok := s.recommender.LatestRecommendation("Main")
	if !ok {
		t.Fatal("expected a cached recommendation")
	}
	if snap.Context == nil || snap.Context.Balance == nil {
		t.Fatal("expected the snapshot to carry a populated context")
	}
	// The second snapshot reflects both movements: 1000 + 500 - 100.
	if got := snap.Context.Balance.StringFixed(2); got != "1400.00" {
		t.Errorf("expected snapshot balance 1400.00, got %s", got)
	}

	before := snap.GeneratedAt
	if _, err := s.ledger.RecordTransaction(context.Background(), "Main", dec("50"),
		date(2025, time.March, 20), "", "food", domain.KindExpense); err != nil {
		t.Fatalf("recording transaction: %v", err)
	}

	snap, ok = s.recommender.LatestRecommendation("Main")
	if !ok {
		t.Fatal("expected a refreshed recommendation")
	}
	if snap.GeneratedAt.Before(before) {
		t.Error("expected the snapshot replaced, not kept")
	}
	if got := snap.Context.Balance.StringFixed(2); got != "1350.00" {
		t.Errorf("expected refreshed balance 1350.00, got %s", got)
	}
}

func TestTimerRefreshCoversAllAccounts(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	if _, err := s.ledger.CreateAccount(ctx, "Checking", "EUR", dec("100")); err != nil {
		t.Fatalf("creating account: %v", err)
	}
	if _, err := s.ledger.CreateAccount(ctx, "Savings", "EUR", dec("5000")); err != nil {
		t.Fatalf("creating account: %v", err)
	}

	s.recommender.RefreshRecommendations(ctx)

	for _, name := range []string{"Checking", "Savings"} {
		snap, ok := s.recommender.LatestRecommendation(name)
		if !ok {
			t.Errorf("expected snapshot for %s", name)
			continue
		}
		if snap.AccountName != name {
			t.Errorf("snapshot for %s carries account %s", name, snap.AccountName)
		}
	}
}

func TestMonthlySummary_EndToEnd(t *testing.T) {
	s := newStack(t)
	seedReferenceAccount(t, s)
	ctx := context.Background()

	if _, err := s.ledger.RecordTransaction(ctx, "Main", dec("2000"),
		date(2025, time.April, 1), "", "salary", domain.KindIncome); err != nil {
		t.Fatalf("recording transaction: %v", err)
	}

	months, err := s.budget.BuildMonthlySummary(ctx, "Main", 2025)
	if err != nil {
		t.Fatalf("building monthly summary: %v", err)
	}

	if len(months) != 2 {
		t.Fatalf("expected rows for March and April, got %d", len(months))
	}
	if months[0].Month != 3 || months[1].Month != 4 {
		t.Errorf("expected months [3 4], got [%d %d]", months[0].Month, months[1].Month)
	}
	if got := months[0].Balance.StringFixed(2); got != "400.00" {
		t.Errorf("march balance 400.00, got %s", got)
	}
	if got := months[1].Balance.StringFixed(2); got != "2000.00" {
		t.Errorf("april balance 2000.00, got %s", got)
	}
}
