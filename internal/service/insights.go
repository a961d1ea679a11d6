package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/port"
)

var insightsTracer = otel.Tracer("service/insights")

var (
	oneHundred           = decimal.NewFromInt(100)
	minVarianceThreshold = decimal.NewFromInt(50)
	varianceTolerance    = decimal.RequireFromString("0.10")
	overageMultiplier    = decimal.RequireFromString("1.10")
	concentrationShare   = decimal.RequireFromString("0.50")
)

// InsightService derives cashflow health metrics and advisory alerts from a
// budget summary plus the raw transaction list for the same range.
type InsightService struct {
	budget  *BudgetService
	ledger  port.LedgerReader
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInsightService creates the dashboard alert engine.
func NewInsightService(budget *BudgetService, ledger port.LedgerReader, metrics *observability.Metrics, logger *zap.Logger) *InsightService {
	return &InsightService{
		budget:  budget,
		ledger:  ledger,
		metrics: metrics,
		logger:  logger,
	}
}

// BuildInsights builds the dashboard view for one account and period.
func (s *InsightService) BuildInsights(ctx context.Context, accountName string, startDate, endDate time.Time) (*domain.DashboardInsights, error) {
	ctx, span := insightsTracer.Start(ctx, "InsightService.BuildInsights")
	defer span.End()

	summary, err := s.budget.BuildSummary(ctx, accountName, startDate, endDate)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledger.Transactions(ctx, accountName, startDate, endDate)
	if err != nil {
		return nil, err
	}

	netCashflow := summary.ActualIncome.Sub(summary.ActualExpense)
	savingsRate := savingsRate(netCashflow, summary.ActualIncome)
	variance := summary.ActualBalance.Sub(summary.ExpectedBalance)

	var lastMovement *time.Time
	if len(txns) > 0 {
		d := txns[len(txns)-1].Date
		lastMovement = &d
	}

	topCategory := topExpenseCategory(txns)

	insights := &domain.DashboardInsights{
		AccountName:          summary.AccountName,
		StartDate:            summary.StartDate,
		EndDate:              summary.EndDate,
		NetCashflow:          netCashflow,
		SavingsRate:          savingsRate,
		ActualIncome:         summary.ActualIncome,
		ActualExpense:        summary.ActualExpense,
		ExpectedBalance:      summary.ExpectedBalance,
		ActualBalance:        summary.ActualBalance,
		Variance:             variance,
		ReconciliationStatus: reconciliationStatus(variance, summary.ExpectedBalance),
		LastMovementDate:     lastMovement,
		TransactionCount:     len(txns),
		TopExpenseCategory:   topCategory,
		Alerts:               buildAlerts(summary, netCashflow, variance, topCategory, len(txns)),
	}

	for _, alert := range insights.Alerts {
		s.metrics.IncrAlert(alert.Severity)
	}

	return insights, nil
}

// savingsRate is net cashflow as a percentage of actual income. The quotient
// is computed at 4-digit precision before scaling by 100; a zero or negative
// income yields zero rather than a division error.
func savingsRate(netCashflow, income decimal.Decimal) decimal.Decimal {
	if income.Sign() <= 0 {
		return decimal.Zero
	}
	return netCashflow.DivRound(income, 4).Mul(oneHundred)
}

// reconciliationStatus compares |variance| against 10% of |expected balance|
// with a 50-unit floor. The floor prevents false "warn" for periods where
// the expected balance itself is near zero.
func reconciliationStatus(variance, expectedBalance decimal.Decimal) string {
	threshold := expectedBalance.Abs().Mul(varianceTolerance)
	if threshold.LessThan(minVarianceThreshold) {
		threshold = minVarianceThreshold
	}
	if variance.Abs().LessThanOrEqual(threshold) {
		return domain.ReconciliationOK
	}
	return domain.ReconciliationWarn
}

// topExpenseCategory picks the expense category with the largest total in
// the range. Category names are visited in sorted order and only a strictly
// greater total displaces the current maximum, so ties resolve
// deterministically to the first name. Nil when no expense category has a
// positive total.
func topExpenseCategory(txns []domain.Transaction) *domain.TopCategory {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txns {
		if tx.CategoryKind != domain.KindExpense {
			continue
		}
		totals[tx.CategoryName] = totals[tx.CategoryName].Add(tx.Amount)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	var top *domain.TopCategory
	for _, name := range names {
		amount := totals[name]
		if amount.Sign() <= 0 {
			continue
		}
		if top == nil || amount.GreaterThan(top.Amount) {
			top = &domain.TopCategory{Name: name, Amount: amount.Round(2)}
		}
	}
	return top
}

// buildAlerts evaluates the advisory rules independently, in fixed order.
// No rule suppresses another; the list carries zero to six entries.
func buildAlerts(
	summary *domain.BudgetSummary,
	netCashflow, variance decimal.Decimal,
	topCategory *domain.TopCategory,
	transactionCount int,
) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	if transactionCount == 0 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityInfo,
			Title:    "No movements",
			Detail:   "No transactions were recorded in the selected period.",
		})
	}

	if summary.ActualIncome.Sign() == 0 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityWarn,
			Title:    "Income absent",
			Detail:   "No income was recorded in the period. Review your main sources.",
		})
	}

	if netCashflow.Sign() < 0 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityWarn,
			Title:    "Negative cashflow",
			Detail:   "Expenses exceed income in the current range.",
		})
	}

	if summary.FixedExpense.Sign() > 0 &&
		summary.ActualExpense.GreaterThan(summary.FixedExpense.Mul(overageMultiplier)) {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityWarn,
			Title:    "Spending over plan",
			Detail:   "Actual expenses exceed the fixed plan by more than 10%.",
		})
	}

	if topCategory != nil && summary.ActualExpense.Sign() > 0 &&
		topCategory.Amount.GreaterThan(summary.ActualExpense.Mul(concentrationShare)) {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityInfo,
			Title:    "Expense concentration",
			Detail:   fmt.Sprintf("Category %s concentrates more than 50%% of spending.", topCategory.Name),
		})
	}

	if variance.Sign() < 0 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.SeverityInfo,
			Title:    "Balance below plan",
			Detail:   "The actual balance is below the planned balance.",
		})
	}

	return alerts
}
