// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luisherrera/finances-go/internal/domain"
)

// LedgerReader exposes read-only views over recorded transactions.
type LedgerReader interface {
	// Balance returns opening balance plus all-time income minus expense.
	Balance(ctx context.Context, accountName string) (decimal.Decimal, error)

	// TotalsByCategory returns per-category sums for one kind, all time.
	TotalsByCategory(ctx context.Context, accountName string, kind domain.CategoryKind) (map[string]decimal.Decimal, error)

	// Transactions returns the account's transactions within [start, end],
	// boundary-inclusive, ordered by date ascending.
	Transactions(ctx context.Context, accountName string, start, end time.Time) ([]domain.Transaction, error)
}

// PlannedMovementReader lists the recurring planned movements of an account.
type PlannedMovementReader interface {
	ListPlannedMovements(ctx context.Context, accountName string) ([]domain.PlannedMovement, error)
}

// AccountFinder resolves an account by its display name.
type AccountFinder interface {
	GetAccountByName(ctx context.Context, name string) (*domain.Account, error)
}

// AccountDirectory enumerates all known accounts. Used by the timer refresh
// to pick generation targets.
type AccountDirectory interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// RecommendationGenerator produces a recommendation reply for a request.
// Implementations may fail with timeout, transport, or invalid-response
// errors; the resilient decorator owns the fallback decision.
type RecommendationGenerator interface {
	Generate(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error)
}

// DocumentIndexer sends a document to the external RAG provider for
// indexing.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc *domain.RagDocument) (*domain.RagReceipt, error)
}

// MovementListener is notified synchronously after a transaction is recorded.
type MovementListener interface {
	OnMovementRecorded(ctx context.Context, accountName string) error
}

// SnapshotStore is a concurrent key-value store with last-writer-wins
// replacement semantics. Reads never block on writes in progress.
type SnapshotStore[T any] interface {
	Get(key string) (T, bool)
	Put(key string, value T)
	Delete(key string)
}

// LedgerStore is the full persistence contract: the read ports above plus
// the thin CRUD surface consumed by the ledger service.
type LedgerStore interface {
	LedgerReader
	PlannedMovementReader
	AccountFinder
	AccountDirectory

	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateOpeningBalance(ctx context.Context, accountName string, balance decimal.Decimal) (*domain.Account, error)

	// EnsureCategory creates the (name, kind) category on first use.
	EnsureCategory(ctx context.Context, name string, kind domain.CategoryKind) (*domain.Category, error)

	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	CreatePlannedMovement(ctx context.Context, pm *domain.PlannedMovement) error
	DeletePlannedMovement(ctx context.Context, id string) error

	CreateGoal(ctx context.Context, goal *domain.FinancialGoal) error
	GoalByID(ctx context.Context, id string) (*domain.FinancialGoal, error)
	GoalsByAccount(ctx context.Context, accountName string) ([]domain.FinancialGoal, error)
	UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal) (*domain.FinancialGoal, error)
}
