package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/service"
)

func TestBuildContext_FullRequest(t *testing.T) {
	backend := &fakeBackend{
		balance: dec("1500"),
		totals:  map[string]decimal.Decimal{"rent": dec("800")},
		txns: []domain.Transaction{
			txn("tx-1", "100", date(2025, time.March, 5), "rent", domain.KindExpense),
		},
		movements: []domain.PlannedMovement{
			planned("rent", "800", domain.PlannedFixedExpense, true),
		},
	}

	svc := service.NewContextService(backend, backend, zap.NewNop())
	start := date(2025, time.March, 1)
	end := date(2025, time.March, 31)
	kind := domain.KindExpense

	fc, err := svc.BuildContext(context.Background(), "Main", &start, &end, &kind)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fc.Balance == nil || !fc.Balance.Equal(dec("1500")) {
		t.Errorf("expected balance 1500, got %v", fc.Balance)
	}
	if len(fc.TotalsByCategory) != 1 {
		t.Errorf("expected 1 total, got %d", len(fc.TotalsByCategory))
	}
	if len(fc.RecentTransactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(fc.RecentTransactions))
	}
	if len(fc.PlannedMovements) != 1 {
		t.Errorf("expected 1 planned movement, got %d", len(fc.PlannedMovements))
	}
}

func TestBuildContext_OptionalReadsSkipped(t *testing.T) {
	backend := &fakeBackend{balance: dec("10")}

	svc := service.NewContextService(backend, backend, zap.NewNop())
	fc, err := svc.BuildContext(context.Background(), "Main", nil, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if backend.totalsCalls != 0 {
		t.Errorf("expected no totals read without a kind, got %d", backend.totalsCalls)
	}
	if backend.txnsCalls != 0 {
		t.Errorf("expected no transactions read without a date range, got %d", backend.txnsCalls)
	}
	if backend.balanceCalls != 1 || backend.plannedCalls != 1 {
		t.Errorf("expected balance and planned always read, got %d/%d",
			backend.balanceCalls, backend.plannedCalls)
	}
	if fc.RecentTransactions == nil || len(fc.RecentTransactions) != 0 {
		t.Errorf("expected empty transactions slice, got %v", fc.RecentTransactions)
	}
}

func TestBuildContext_BackendError(t *testing.T) {
	backend := &fakeBackend{balanceErr: errors.New("db closed")}

	svc := service.NewContextService(backend, backend, zap.NewNop())
	_, err := svc.BuildContext(context.Background(), "Main", nil, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestEnrichContext_PassThroughWithoutAccount(t *testing.T) {
	backend := &fakeBackend{}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	in := &domain.FinancialContext{AccountName: "  "}
	out, err := svc.EnrichContext(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != in {
		t.Error("expected the original context back")
	}
	if backend.balanceCalls != 0 || backend.plannedCalls != 0 {
		t.Error("expected no backend reads for an account-less context")
	}
}

func TestEnrichContext_FillsMissingBalance(t *testing.T) {
	backend := &fakeBackend{
		balance: dec("250"),
		movements: []domain.PlannedMovement{
			planned("rent", "800", domain.PlannedFixedExpense, true),
		},
	}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	out, err := svc.EnrichContext(context.Background(), &domain.FinancialContext{AccountName: "Main"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Balance == nil || !out.Balance.Equal(dec("250")) {
		t.Errorf("expected balance 250, got %v", out.Balance)
	}
	if len(out.PlannedMovements) != 1 {
		t.Errorf("expected planned movements fetched, got %v", out.PlannedMovements)
	}
}

func TestEnrichContext_TrustsEmptyListsWhenComplete(t *testing.T) {
	// A context whose balance and totals are already present treats its empty
	// lists as real zero results and does not refetch them.
	backend := &fakeBackend{
		txns: []domain.Transaction{
			txn("tx-1", "100", date(2025, time.March, 5), "rent", domain.KindExpense),
		},
		movements: []domain.PlannedMovement{
			planned("rent", "800", domain.PlannedFixedExpense, true),
		},
	}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	balance := dec("100")
	in := &domain.FinancialContext{
		AccountName:        "Main",
		Balance:            &balance,
		TotalsByCategory:   map[string]decimal.Decimal{},
		RecentTransactions: []domain.TransactionSummary{},
		PlannedMovements:   []domain.PlannedMovementSummary{},
	}
	out, err := svc.EnrichContext(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if backend.txnsCalls != 0 || backend.plannedCalls != 0 {
		t.Errorf("expected no refetch, got txns=%d planned=%d",
			backend.txnsCalls, backend.plannedCalls)
	}
	if len(out.RecentTransactions) != 0 || len(out.PlannedMovements) != 0 {
		t.Error("expected the empty lists preserved")
	}
}

func TestEnrichContext_RefetchesEmptyListsWhenIncomplete(t *testing.T) {
	// The same empty lists next to a missing balance are treated as an
	// omission and refetched.
	backend := &fakeBackend{
		balance: dec("100"),
		movements: []domain.PlannedMovement{
			planned("rent", "800", domain.PlannedFixedExpense, true),
		},
	}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	start := date(2025, time.March, 1)
	end := date(2025, time.March, 31)
	in := &domain.FinancialContext{
		AccountName:        "Main",
		StartDate:          &start,
		EndDate:            &end,
		RecentTransactions: []domain.TransactionSummary{},
		PlannedMovements:   []domain.PlannedMovementSummary{},
	}
	out, err := svc.EnrichContext(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if backend.txnsCalls != 1 || backend.plannedCalls != 1 {
		t.Errorf("expected both lists refetched, got txns=%d planned=%d",
			backend.txnsCalls, backend.plannedCalls)
	}
	if len(out.PlannedMovements) != 1 {
		t.Errorf("expected refetched planned movements, got %v", out.PlannedMovements)
	}
}

func TestEnrichChatRequest_ReturnsOriginalWhenUnchanged(t *testing.T) {
	backend := &fakeBackend{}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	balance := dec("100")
	req := &domain.ChatRequest{
		Message: "how am I doing?",
		Context: &domain.FinancialContext{
			AccountName:        "Main",
			Balance:            &balance,
			TotalsByCategory:   map[string]decimal.Decimal{},
			RecentTransactions: []domain.TransactionSummary{},
			PlannedMovements:   []domain.PlannedMovementSummary{},
		},
	}

	out, err := svc.EnrichChatRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != req {
		t.Error("expected the original request when enrichment changed nothing")
	}
}

func TestEnrichChatRequest_WrapsEnrichedContext(t *testing.T) {
	backend := &fakeBackend{balance: dec("75")}
	svc := service.NewContextService(backend, backend, zap.NewNop())

	req := &domain.ChatRequest{
		SessionID: "s-1",
		Message:   "status?",
		Context:   &domain.FinancialContext{AccountName: "Main"},
	}

	out, err := svc.EnrichChatRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out == req {
		t.Fatal("expected a new request carrying the enriched context")
	}
	if out.SessionID != "s-1" || out.Message != "status?" {
		t.Error("expected session and message preserved")
	}
	if out.Context.Balance == nil || !out.Context.Balance.Equal(dec("75")) {
		t.Errorf("expected enriched balance 75, got %v", out.Context.Balance)
	}
}
