// Package domain defines the core business entities for the finances service.
// These models are independent of persistence and transport and represent the
// canonical data structures used throughout the application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Categories
// ============================================================

// CategoryKind classifies a category as income or expense.
type CategoryKind string

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
)

// ParseCategoryKind validates a raw kind string.
func ParseCategoryKind(s string) (CategoryKind, bool) {
	switch CategoryKind(s) {
	case KindIncome, KindExpense:
		return CategoryKind(s), true
	}
	return "", false
}

// Category buckets transactions. Categories are created lazily on first use
// per (name, kind) pair and never deleted.
type Category struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind CategoryKind `json:"kind"`
}

// ============================================================
// Accounts
// ============================================================

// Account is a ledger account. The display name is unique case-insensitively.
// Immutable after creation except the opening balance, which may be corrected
// explicitly.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ============================================================
// Transactions
// ============================================================

// Transaction is a recorded ledger movement. The amount is always a
// non-negative magnitude; the sign is implied by the category kind. The date
// carries calendar-day semantics only (no time component).
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description,omitempty"`
	CategoryName string          `json:"category"`
	CategoryKind CategoryKind    `json:"category_kind"`
}

// ============================================================
// Planned movements
// ============================================================

// PlannedMovementKind is the plan-level classification of a recurring
// commitment.
type PlannedMovementKind string

const (
	PlannedFixedExpense    PlannedMovementKind = "fixed_expense"
	PlannedVariableExpense PlannedMovementKind = "variable_expense"
	PlannedVariableIncome  PlannedMovementKind = "variable_income"
	PlannedPayroll         PlannedMovementKind = "payroll"
)

// ParsePlannedMovementKind validates a raw planned movement kind.
func ParsePlannedMovementKind(s string) (PlannedMovementKind, bool) {
	switch PlannedMovementKind(s) {
	case PlannedFixedExpense, PlannedVariableExpense, PlannedVariableIncome, PlannedPayroll:
		return PlannedMovementKind(s), true
	}
	return "", false
}

// IsFixedIncome reports whether the kind is a standing income commitment.
func (k PlannedMovementKind) IsFixedIncome() bool { return k == PlannedPayroll }

// IsFixedExpense reports whether the kind is a standing expense commitment.
func (k PlannedMovementKind) IsFixedExpense() bool { return k == PlannedFixedExpense }

// Recurrence is the repetition period of a planned movement.
type Recurrence string

const (
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceAnnual  Recurrence = "annual"
)

// ParseRecurrence validates a raw recurrence string.
func ParseRecurrence(s string) (Recurrence, bool) {
	switch Recurrence(s) {
	case RecurrenceWeekly, RecurrenceMonthly, RecurrenceAnnual:
		return Recurrence(s), true
	}
	return "", false
}

// PlannedMovement is a recurring obligation attached to an account. It never
// produces a Transaction automatically; it only feeds expected-cashflow math.
type PlannedMovement struct {
	ID         string              `json:"id"`
	AccountID  string              `json:"account_id"`
	Name       string              `json:"name"`
	Amount     decimal.Decimal     `json:"amount"`
	Kind       PlannedMovementKind `json:"kind"`
	Recurrence Recurrence          `json:"recurrence"`
	StartDate  time.Time           `json:"start_date"`
	Active     bool                `json:"active"`
}

// ============================================================
// Financial goals
// ============================================================

// FinancialGoal is a savings target attached to an account. Progress is
// accumulated explicitly through the goal endpoints; goals never feed the
// ledger or budget math.
type FinancialGoal struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	AccountName   string          `json:"account_name"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    time.Time       `json:"target_date"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DateOnly is the wire format for calendar-day fields.
const DateOnly = "2006-01-02"

// TruncateToDay drops the time component, keeping calendar-day semantics.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
