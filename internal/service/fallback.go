package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
)

const defaultUserMessage = "Give me a quick assessment of my finances."

// FallbackGenerator is the local, deterministic recommendation generator used
// when the external one is unreachable. It renders the financial context into
// a prompt-style summary and answers with rule-based guidance, so a degraded
// service still returns something grounded in real data.
type FallbackGenerator struct {
	logger *zap.Logger
}

// NewFallbackGenerator creates the local generator.
func NewFallbackGenerator(logger *zap.Logger) *FallbackGenerator {
	return &FallbackGenerator{logger: logger}
}

// Generate never fails. Blank session ids get a fresh one; blank messages are
// normalized to a default question.
func (g *FallbackGenerator) Generate(_ context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	sessionID := req.SessionID
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = defaultUserMessage
	}

	g.logger.Debug("serving recommendation from local fallback",
		zap.String("session_id", sessionID))

	return &domain.ChatResponse{
		SessionID:   sessionID,
		Reply:       g.buildReply(message, req.Context),
		RespondedAt: time.Now().UTC(),
	}, nil
}

func (g *FallbackGenerator) buildReply(message string, c *domain.FinancialContext) string {
	var b strings.Builder

	b.WriteString("Question: ")
	b.WriteString(message)
	b.WriteString("\n\n")
	b.WriteString(BuildContextPrompt(c, g.logger))
	b.WriteString("\n")

	switch {
	case c == nil || c.Balance == nil:
		b.WriteString("Assessment: not enough data to judge the current balance. Record your accounts and movements to get tailored advice.")
	case c.Balance.Sign() < 0:
		b.WriteString("Assessment: the balance is negative. Prioritize covering the shortfall: pause variable expenses, review fixed commitments, and avoid new spending until income arrives.")
	case c.Balance.Sign() == 0:
		b.WriteString("Assessment: the balance is exactly zero. Any unplanned expense will push the account negative; hold spending until the next income movement.")
	default:
		b.WriteString("Assessment: the balance is positive. Keep fixed commitments covered and consider assigning part of the surplus to savings.")
	}

	return b.String()
}

// BuildContextPrompt renders a financial context as prompt text, skipping
// absent fields so the consumer never sees placeholder noise.
func BuildContextPrompt(c *domain.FinancialContext, logger *zap.Logger) string {
	if c == nil {
		return "Financial context: none provided."
	}

	var lines []string
	skip := func(field string) {
		logger.Debug("context field absent, skipped in prompt", zap.String("field", field))
	}

	if strings.TrimSpace(c.AccountName) != "" {
		lines = append(lines, fmt.Sprintf("Account: %s", c.AccountName))
	} else {
		skip("account_name")
	}

	if c.StartDate != nil && c.EndDate != nil {
		lines = append(lines, fmt.Sprintf("Period: %s to %s",
			c.StartDate.Format(domain.DateOnly), c.EndDate.Format(domain.DateOnly)))
	} else {
		skip("period")
	}

	if c.Balance != nil {
		lines = append(lines, fmt.Sprintf("Current balance: %s", c.Balance.StringFixed(2)))
	} else {
		skip("balance")
	}

	if len(c.TotalsByCategory) > 0 {
		kind := "category"
		if c.CategoryKind != nil {
			kind = string(*c.CategoryKind)
		}
		names := make([]string, 0, len(c.TotalsByCategory))
		for name := range c.TotalsByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, c.TotalsByCategory[name].StringFixed(2)))
		}
		lines = append(lines, fmt.Sprintf("Totals by %s: %s", kind, strings.Join(parts, ", ")))
	} else {
		skip("totals_by_category")
	}

	if len(c.RecentTransactions) > 0 {
		lines = append(lines, fmt.Sprintf("Recent transactions (%d):", len(c.RecentTransactions)))
		for _, tx := range c.RecentTransactions {
			lines = append(lines, fmt.Sprintf("  - %s %s %s (%s)",
				tx.Date.Format(domain.DateOnly), tx.Amount.StringFixed(2), tx.Category, tx.Kind))
		}
	} else {
		skip("recent_transactions")
	}

	if len(c.PlannedMovements) > 0 {
		lines = append(lines, fmt.Sprintf("Planned movements (%d):", len(c.PlannedMovements)))
		for _, pm := range c.PlannedMovements {
			state := "active"
			if !pm.Active {
				state = "inactive"
			}
			lines = append(lines, fmt.Sprintf("  - %s %s %s (%s)",
				pm.Name, pm.Amount.StringFixed(2), pm.Kind, state))
		}
	} else {
		skip("planned_movements")
	}

	if len(lines) == 0 {
		return "Financial context: none provided."
	}
	return "Financial context:\n" + strings.Join(lines, "\n")
}
