package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService owns account, transaction, and planned movement writes. It
// validates input, persists through the store, and notifies the movement
// listener synchronously after each recorded transaction.
type LedgerService struct {
	store    port.LedgerStore
	listener port.MovementListener
	logger   *zap.Logger
}

// NewLedgerService creates the ledger service. listener may be nil when no
// recommendation engine is wired.
func NewLedgerService(store port.LedgerStore, listener port.MovementListener, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:    store,
		listener: listener,
		logger:   logger,
	}
}

// CreateAccount registers a new account. Names are unique case-insensitively;
// currency defaults to EUR when blank.
func (s *LedgerService) CreateAccount(ctx context.Context, name, currency string, openingBalance decimal.Decimal) (*domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateAccount")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be blank"}
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "EUR"
	}

	account := &domain.Account{
		ID:             uuid.NewString(),
		Name:           name,
		Currency:       currency,
		OpeningBalance: openingBalance.Round(2),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("name", name), zap.String("currency", currency))
	return account, nil
}

// GetAccount resolves one account by name.
func (s *LedgerService) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	return s.store.GetAccountByName(ctx, name)
}

// ListAccounts returns all accounts ordered by name.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.store.ListAccounts(ctx)
}

// UpdateOpeningBalance corrects the opening balance of an account.
func (s *LedgerService) UpdateOpeningBalance(ctx context.Context, name string, balance decimal.Decimal) (*domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateOpeningBalance")
	defer span.End()

	account, err := s.store.UpdateOpeningBalance(ctx, name, balance.Round(2))
	if err != nil {
		return nil, err
	}
	s.logger.Info("opening balance updated", zap.String("account", name))
	return account, nil
}

// RecordTransaction validates and persists one ledger movement, creating the
// category lazily on first use, then notifies the movement listener. Listener
// failures are logged and do not undo the write: the transaction is the
// record of truth, the recommendation snapshot is best-effort.
func (s *LedgerService) RecordTransaction(
	ctx context.Context,
	accountName string,
	amount decimal.Decimal,
	date time.Time,
	description, categoryName string,
	kind domain.CategoryKind,
) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.RecordTransaction")
	defer span.End()

	if amount.Sign() < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if date.IsZero() {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be set"}
	}
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "must not be blank"}
	}
	if _, ok := domain.ParseCategoryKind(string(kind)); !ok {
		return nil, &domain.ErrValidation{Field: "kind", Message: "must be income or expense"}
	}

	account, err := s.store.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.EnsureCategory(ctx, categoryName, kind); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		Amount:       amount.Round(2),
		Date:         domain.TruncateToDay(date),
		Description:  strings.TrimSpace(description),
		CategoryName: categoryName,
		CategoryKind: kind,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if s.listener != nil {
		if err := s.listener.OnMovementRecorded(ctx, account.Name); err != nil {
			s.logger.Warn("movement listener failed after transaction write",
				zap.String("account", account.Name),
				zap.Error(err))
		}
	}

	return tx, nil
}

// DeleteTransaction removes one transaction by id.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

// ListTransactions returns transactions within [start, end], both inclusive.
func (s *LedgerService) ListTransactions(ctx context.Context, accountName string, start, end time.Time) ([]domain.Transaction, error) {
	if end.Before(start) {
		return nil, &domain.ErrValidation{Field: "end_date", Message: "must not precede start_date"}
	}
	return s.store.Transactions(ctx, accountName, domain.TruncateToDay(start), domain.TruncateToDay(end))
}

// CreatePlannedMovement registers a recurring commitment on an account.
func (s *LedgerService) CreatePlannedMovement(
	ctx context.Context,
	accountName, name string,
	amount decimal.Decimal,
	kind domain.PlannedMovementKind,
	recurrence domain.Recurrence,
	startDate time.Time,
	active bool,
) (*domain.PlannedMovement, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreatePlannedMovement")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be blank"}
	}
	if amount.Sign() < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if _, ok := domain.ParsePlannedMovementKind(string(kind)); !ok {
		return nil, &domain.ErrValidation{Field: "kind", Message: "unknown planned movement kind"}
	}
	if _, ok := domain.ParseRecurrence(string(recurrence)); !ok {
		return nil, &domain.ErrValidation{Field: "recurrence", Message: "must be weekly, monthly or annual"}
	}

	account, err := s.store.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	pm := &domain.PlannedMovement{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		Name:       name,
		Amount:     amount.Round(2),
		Kind:       kind,
		Recurrence: recurrence,
		StartDate:  domain.TruncateToDay(startDate),
		Active:     active,
	}
	if err := s.store.CreatePlannedMovement(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

// ListPlannedMovements returns the recurring commitments of an account.
func (s *LedgerService) ListPlannedMovements(ctx context.Context, accountName string) ([]domain.PlannedMovement, error) {
	return s.store.ListPlannedMovements(ctx, accountName)
}

// DeletePlannedMovement removes one planned movement by id.
func (s *LedgerService) DeletePlannedMovement(ctx context.Context, id string) error {
	return s.store.DeletePlannedMovement(ctx, id)
}
