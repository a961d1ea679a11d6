package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/port"
)

var budgetTracer = otel.Tracer("service/budget")

// BudgetService combines the ledger and planned movement readers into
// period budget summaries and monthly trend series. It is stateless and
// safe for concurrent use.
type BudgetService struct {
	accounts port.AccountFinder
	ledger   port.LedgerReader
	planned  port.PlannedMovementReader
	logger   *zap.Logger
}

// NewBudgetService creates the budget aggregation engine.
func NewBudgetService(
	accounts port.AccountFinder,
	ledger port.LedgerReader,
	planned port.PlannedMovementReader,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		accounts: accounts,
		ledger:   ledger,
		planned:  planned,
		logger:   logger,
	}
}

// BuildSummary builds the budget view of one account for [startDate, endDate].
//
// Fixed income/expense sum the active planned movements by kind and are NOT
// filtered by the date range: they represent the standing recurring
// commitment independent of how many times it would have recurred in the
// window. Actual income/expense are the date-range-filtered transaction
// sums, boundary-inclusive on both ends.
func (s *BudgetService) BuildSummary(ctx context.Context, accountName string, startDate, endDate time.Time) (*domain.BudgetSummary, error) {
	ctx, span := budgetTracer.Start(ctx, "BudgetService.BuildSummary")
	defer span.End()

	if endDate.Before(startDate) {
		return nil, &domain.ErrValidation{Field: "end_date", Message: "must not be before start_date"}
	}

	account, err := s.accounts.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	fixedIncome, fixedExpense, err := s.sumPlannedMovements(ctx, accountName)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledger.Transactions(ctx, accountName, startDate, endDate)
	if err != nil {
		return nil, err
	}
	actualIncome, actualExpense := sumByKind(txns)

	opening := account.OpeningBalance.Round(2)
	expected := opening.Add(fixedIncome).Sub(fixedExpense)
	actual := opening.Add(actualIncome).Sub(actualExpense)

	return &domain.BudgetSummary{
		AccountName:     account.Name,
		StartDate:       startDate,
		EndDate:         endDate,
		OpeningBalance:  opening,
		FixedIncome:     fixedIncome,
		FixedExpense:    fixedExpense,
		ActualIncome:    actualIncome,
		ActualExpense:   actualExpense,
		ExpectedBalance: expected,
		ActualBalance:   actual,
	}, nil
}

// BuildMonthlySummary aggregates the account's actual transactions for one
// calendar year into per-month income/expense/balance rows, ascending by
// (year, month), omitting months without transactions.
func (s *BudgetService) BuildMonthlySummary(ctx context.Context, accountName string, year int) ([]domain.MonthlySummary, error) {
	ctx, span := budgetTracer.Start(ctx, "BudgetService.BuildMonthlySummary")
	defer span.End()

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	txns, err := s.ledger.Transactions(ctx, accountName, start, end)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		income  decimal.Decimal
		expense decimal.Decimal
	}
	byMonth := make(map[int]*accumulator)
	for _, tx := range txns {
		month := int(tx.Date.Month())
		acc, ok := byMonth[month]
		if !ok {
			acc = &accumulator{}
			byMonth[month] = acc
		}
		if tx.CategoryKind == domain.KindIncome {
			acc.income = acc.income.Add(tx.Amount)
		} else {
			acc.expense = acc.expense.Add(tx.Amount)
		}
	}

	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Ints(months)

	summaries := make([]domain.MonthlySummary, 0, len(months))
	for _, m := range months {
		acc := byMonth[m]
		income := acc.income.Round(2)
		expense := acc.expense.Round(2)
		summaries = append(summaries, domain.MonthlySummary{
			Year:    year,
			Month:   m,
			Income:  income,
			Expense: expense,
			Balance: income.Sub(expense),
		})
	}
	return summaries, nil
}

func (s *BudgetService) sumPlannedMovements(ctx context.Context, accountName string) (fixedIncome, fixedExpense decimal.Decimal, err error) {
	movements, err := s.planned.ListPlannedMovements(ctx, accountName)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	for _, pm := range movements {
		if !pm.Active {
			continue
		}
		switch {
		case pm.Kind.IsFixedIncome():
			fixedIncome = fixedIncome.Add(pm.Amount)
		case pm.Kind.IsFixedExpense():
			fixedExpense = fixedExpense.Add(pm.Amount)
		}
	}
	return fixedIncome.Round(2), fixedExpense.Round(2), nil
}

// sumByKind totals a transaction slice into income and expense buckets,
// rounded to the ledger's 2-decimal scale. Missing sums stay zero.
func sumByKind(txns []domain.Transaction) (income, expense decimal.Decimal) {
	for _, tx := range txns {
		if tx.CategoryKind == domain.KindIncome {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return income.Round(2), expense.Round(2)
}
