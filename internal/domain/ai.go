package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// AI consultation transit objects
// ============================================================

// TransactionSummary is the compact transaction view carried inside a
// financial context.
type TransactionSummary struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Kind        CategoryKind    `json:"kind"`
}

// PlannedMovementSummary is the compact planned movement view carried inside
// a financial context.
type PlannedMovementSummary struct {
	Name      string              `json:"name"`
	Kind      PlannedMovementKind `json:"kind"`
	Amount    decimal.Decimal     `json:"amount"`
	StartDate time.Time           `json:"start_date"`
	Active    bool                `json:"active"`
}

// FinancialContext is the portable snapshot that grounds an AI consultation
// in live ledger state. Any subset of fields may be absent (nil) when a
// caller constructs it partially; the context assembler fills the gaps
// without overwriting caller-supplied non-empty data.
type FinancialContext struct {
	AccountName        string                     `json:"account_name,omitempty"`
	StartDate          *time.Time                 `json:"start_date,omitempty"`
	EndDate            *time.Time                 `json:"end_date,omitempty"`
	CategoryKind       *CategoryKind              `json:"category_kind,omitempty"`
	Balance            *decimal.Decimal           `json:"balance,omitempty"`
	TotalsByCategory   map[string]decimal.Decimal `json:"totals_by_category,omitempty"`
	RecentTransactions []TransactionSummary       `json:"recent_transactions,omitempty"`
	PlannedMovements   []PlannedMovementSummary   `json:"planned_movements,omitempty"`
}

// Equal reports structural equality between two contexts. Used to detect
// that enrichment changed nothing, so the original request can be reused.
func (c *FinancialContext) Equal(o *FinancialContext) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.AccountName != o.AccountName {
		return false
	}
	if !equalDatePtr(c.StartDate, o.StartDate) || !equalDatePtr(c.EndDate, o.EndDate) {
		return false
	}
	if (c.CategoryKind == nil) != (o.CategoryKind == nil) {
		return false
	}
	if c.CategoryKind != nil && *c.CategoryKind != *o.CategoryKind {
		return false
	}
	if (c.Balance == nil) != (o.Balance == nil) {
		return false
	}
	if c.Balance != nil && !c.Balance.Equal(*o.Balance) {
		return false
	}
	if !equalTotals(c.TotalsByCategory, o.TotalsByCategory) {
		return false
	}
	if !equalTransactions(c.RecentTransactions, o.RecentTransactions) {
		return false
	}
	return equalPlanned(c.PlannedMovements, o.PlannedMovements)
}

func equalDatePtr(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func equalTotals(a, b map[string]decimal.Decimal) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

func equalTransactions(a, b []TransactionSummary) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Amount.Equal(b[i].Amount) ||
			!a[i].Date.Equal(b[i].Date) || a[i].Description != b[i].Description ||
			a[i].Category != b[i].Category || a[i].Kind != b[i].Kind {
			return false
		}
	}
	return true
}

func equalPlanned(a, b []PlannedMovementSummary) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Kind != b[i].Kind ||
			!a[i].Amount.Equal(b[i].Amount) || !a[i].StartDate.Equal(b[i].StartDate) ||
			a[i].Active != b[i].Active {
			return false
		}
	}
	return true
}

// ============================================================
// Generator request/response
// ============================================================

// ChatRequest is a generation request sent to the recommendation generator.
type ChatRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	Message   string            `json:"message"`
	Model     string            `json:"model,omitempty"`
	Context   *FinancialContext `json:"context,omitempty"`
}

// ChatResponse is the generator's reply.
type ChatResponse struct {
	SessionID   string    `json:"session_id"`
	Reply       string    `json:"reply"`
	RespondedAt time.Time `json:"responded_at"`
}

// RecommendationSnapshot is the cached result of one generation cycle for an
// account. Replaced wholesale on every successful generation; never merged.
type RecommendationSnapshot struct {
	AccountName    string            `json:"account_name"`
	Context        *FinancialContext `json:"context"`
	Recommendation string            `json:"recommendation"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// ============================================================
// RAG documents
// ============================================================

// RagDocument is a text document to index in the external RAG provider.
// Content is mandatory; the title is optional.
type RagDocument struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// RagReceipt is the provider's acknowledgement for an indexed document.
type RagReceipt struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}
