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

var goalTracer = otel.Tracer("service/goals")

// GoalService manages per-account savings targets.
type GoalService struct {
	store  port.LedgerStore
	logger *zap.Logger
}

// NewGoalService creates the goal service.
func NewGoalService(store port.LedgerStore, logger *zap.Logger) *GoalService {
	return &GoalService{store: store, logger: logger}
}

// CreateGoal registers a savings target on an account. The current amount
// starts at zero unless supplied.
func (s *GoalService) CreateGoal(
	ctx context.Context,
	accountName, name string,
	targetAmount decimal.Decimal,
	currentAmount *decimal.Decimal,
	targetDate time.Time,
	description string,
) (*domain.FinancialGoal, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.CreateGoal")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be blank"}
	}
	if targetAmount.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "target_amount", Message: "must be positive"}
	}
	if targetDate.IsZero() {
		return nil, &domain.ErrValidation{Field: "target_date", Message: "must be set"}
	}

	account, err := s.store.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	current := decimal.Zero
	if currentAmount != nil {
		current = currentAmount.Round(2)
	}

	goal := &domain.FinancialGoal{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		AccountName:   account.Name,
		Name:          name,
		TargetAmount:  targetAmount.Round(2),
		CurrentAmount: current,
		TargetDate:    domain.TruncateToDay(targetDate),
		Description:   strings.TrimSpace(description),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}

	s.logger.Info("financial goal created",
		zap.String("account", account.Name),
		zap.String("goal", name))
	return goal, nil
}

// ListGoals returns the savings targets of an account.
func (s *GoalService) ListGoals(ctx context.Context, accountName string) ([]domain.FinancialGoal, error) {
	return s.store.GoalsByAccount(ctx, accountName)
}

// AddProgress adds an amount to a goal's accumulated progress. A nil or
// zero amount leaves the goal unchanged but still returns its current state.
func (s *GoalService) AddProgress(ctx context.Context, goalID string, amount *decimal.Decimal) (*domain.FinancialGoal, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.AddProgress")
	defer span.End()

	goal, err := s.store.GoalByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	delta := decimal.Zero
	if amount != nil {
		delta = amount.Round(2)
	}
	return s.store.UpdateGoalProgress(ctx, goal.ID, goal.CurrentAmount.Add(delta))
}
