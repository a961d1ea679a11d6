package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Budget read models (derived, never persisted)
// ============================================================

// BudgetSummary is the period budget view of one account. Fixed totals come
// from active planned movements regardless of the date range; actual totals
// are date-range-filtered transaction sums.
type BudgetSummary struct {
	AccountName     string          `json:"account_name"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	FixedIncome     decimal.Decimal `json:"fixed_income"`
	FixedExpense    decimal.Decimal `json:"fixed_expense"`
	ActualIncome    decimal.Decimal `json:"actual_income"`
	ActualExpense   decimal.Decimal `json:"actual_expense"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ActualBalance   decimal.Decimal `json:"actual_balance"`
}

// MonthlySummary aggregates actual transactions for one calendar month.
// Balance is income minus expense for that month alone, no carry-forward.
type MonthlySummary struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ============================================================
// Dashboard read models
// ============================================================

// ReconciliationStatus is the coarse classification of variance magnitude.
const (
	ReconciliationOK   = "ok"
	ReconciliationWarn = "warn"
)

// AlertSeverity levels for dashboard alerts.
const (
	SeverityInfo = "info"
	SeverityWarn = "warn"
)

// Alert is an advisory message derived from budget health rules. It is a
// value object with no identity.
type Alert struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

// TopCategory names the largest expense category in a period.
type TopCategory struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DashboardInsights is the full dashboard view for one account and period.
type DashboardInsights struct {
	AccountName          string          `json:"account_name"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	NetCashflow          decimal.Decimal `json:"net_cashflow"`
	SavingsRate          decimal.Decimal `json:"savings_rate"`
	ActualIncome         decimal.Decimal `json:"actual_income"`
	ActualExpense        decimal.Decimal `json:"actual_expense"`
	ExpectedBalance      decimal.Decimal `json:"expected_balance"`
	ActualBalance        decimal.Decimal `json:"actual_balance"`
	Variance             decimal.Decimal `json:"variance"`
	ReconciliationStatus string          `json:"reconciliation_status"`
	LastMovementDate     *time.Time      `json:"last_movement_date,omitempty"`
	TransactionCount     int             `json:"transaction_count"`
	TopExpenseCategory   *TopCategory    `json:"top_expense_category,omitempty"`
	Alerts               []Alert         `json:"alerts"`
}
