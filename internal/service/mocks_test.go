package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luisherrera/finances-go/internal/domain"
)

// --- Shared fakes ---

// fakeBackend implements the read ports backed by in-memory fixtures. Call
// counters let tests assert which reads an operation actually performed.
type fakeBackend struct {
	account   *domain.Account
	accounts  []domain.Account
	balance   decimal.Decimal
	totals    map[string]decimal.Decimal
	txns      []domain.Transaction
	movements []domain.PlannedMovement

	accountErr error
	balanceErr error
	totalsErr  error
	txnsErr    error
	plannedErr error
	listErr    error

	balanceCalls int
	totalsCalls  int
	txnsCalls    int
	plannedCalls int

	lastTxnStart time.Time
	lastTxnEnd   time.Time
}

func (f *fakeBackend) GetAccountByName(_ context.Context, name string) (*domain.Account, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	if f.account == nil {
		return nil, &domain.ErrNotFound{Resource: "account", Ref: name}
	}
	return f.account, nil
}

func (f *fakeBackend) ListAccounts(_ context.Context) ([]domain.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts, nil
}

func (f *fakeBackend) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	f.balanceCalls++
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeBackend) TotalsByCategory(_ context.Context, _ string, _ domain.CategoryKind) (map[string]decimal.Decimal, error) {
	f.totalsCalls++
	if f.totalsErr != nil {
		return nil, f.totalsErr
	}
	return f.totals, nil
}

func (f *fakeBackend) Transactions(_ context.Context, _ string, start, end time.Time) ([]domain.Transaction, error) {
	f.txnsCalls++
	f.lastTxnStart = start
	f.lastTxnEnd = end
	if f.txnsErr != nil {
		return nil, f.txnsErr
	}
	out := make([]domain.Transaction, 0, len(f.txns))
	for _, tx := range f.txns {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeBackend) ListPlannedMovements(_ context.Context, _ string) ([]domain.PlannedMovement, error) {
	f.plannedCalls++
	if f.plannedErr != nil {
		return nil, f.plannedErr
	}
	return f.movements, nil
}

// fakeGenerator records the requests it receives. failFor makes it error for
// one specific account while serving the rest.
type fakeGenerator struct {
	response *domain.ChatResponse
	err      error
	failFor  string
	requests []*domain.ChatRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.failFor != "" && req.Context != nil && req.Context.AccountName == f.failFor {
		return nil, errors.New("generation failed for " + f.failFor)
	}
	return f.response, nil
}

// --- Fixture helpers ---

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAccount(opening string) *domain.Account {
	return &domain.Account{
		ID:             "acc-1",
		Name:           "Main",
		Currency:       "EUR",
		OpeningBalance: dec(opening),
		CreatedAt:      date(2024, time.January, 1),
	}
}

func txn(id, amount string, d time.Time, category string, kind domain.CategoryKind) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		AccountID:    "acc-1",
		Amount:       dec(amount),
		Date:         d,
		CategoryName: category,
		CategoryKind: kind,
	}
}

func planned(name, amount string, kind domain.PlannedMovementKind, active bool) domain.PlannedMovement {
	return domain.PlannedMovement{
		ID:         "pm-" + name,
		AccountID:  "acc-1",
		Name:       name,
		Amount:     dec(amount),
		Kind:       kind,
		Recurrence: domain.RecurrenceMonthly,
		StartDate:  date(2024, time.January, 1),
		Active:     active,
	}
}
