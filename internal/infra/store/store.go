// Package store persists the ledger in SQLite and implements the read and
// write ports consumed by the service layer. Monetary amounts are stored as
// decimal strings and summed with fixed-point arithmetic, never floats.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/luisherrera/finances-go/internal/domain"
)

// SQLite is the concrete LedgerStore backed by a sqlite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping reports connectivity, used by the health endpoint.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ============================================================
// Accounts
// ============================================================

func (s *SQLite) CreateAccount(ctx context.Context, account *domain.Account) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE lower(name) = lower(?)`, account.Name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check account name: %w", err)
	}
	if exists > 0 {
		return &domain.ErrConflict{Message: fmt.Sprintf("account %q already exists", account.Name)}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, currency, opening_balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Currency,
		account.OpeningBalance.String(), account.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *SQLite) GetAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, currency, opening_balance, created_at
		   FROM accounts WHERE lower(name) = lower(?)`, name)
	return scanAccount(row, name)
}

func (s *SQLite) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, currency, opening_balance, created_at
		   FROM accounts ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var (
			a          domain.Account
			balanceRaw string
			createdRaw string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &balanceRaw, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.OpeningBalance, err = decimal.NewFromString(balanceRaw); err != nil {
			return nil, fmt.Errorf("parse opening balance: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339, createdRaw); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLite) UpdateOpeningBalance(ctx context.Context, accountName string, balance decimal.Decimal) (*domain.Account, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET opening_balance = ? WHERE lower(name) = lower(?)`,
		balance.String(), accountName)
	if err != nil {
		return nil, fmt.Errorf("update opening balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", Ref: accountName}
	}
	return s.GetAccountByName(ctx, accountName)
}

func scanAccount(row *sql.Row, ref string) (*domain.Account, error) {
	var (
		a          domain.Account
		balanceRaw string
		createdRaw string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Currency, &balanceRaw, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", Ref: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if a.OpeningBalance, err = decimal.NewFromString(balanceRaw); err != nil {
		return nil, fmt.Errorf("parse opening balance: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &a, nil
}

// ============================================================
// Categories
// ============================================================

func (s *SQLite) EnsureCategory(ctx context.Context, name string, kind domain.CategoryKind) (*domain.Category, error) {
	cat := &domain.Category{Name: name, Kind: kind}
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ? AND kind = ?`, name, string(kind),
	).Scan(&cat.ID)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup category: %w", err)
	}

	cat.ID = uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, kind) VALUES (?, ?, ?)`,
		cat.ID, name, string(kind),
	); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return cat, nil
}

// ============================================================
// Transactions
// ============================================================

func (s *SQLite) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	var categoryID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ? AND kind = ?`,
		tx.CategoryName, string(tx.CategoryKind),
	).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ErrNotFound{Resource: "category", Ref: tx.CategoryName}
	}
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, category_id, amount, tx_date, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, categoryID,
		tx.Amount.String(), tx.Date.Format(domain.DateOnly), tx.Description,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.ErrNotFound{Resource: "transaction", Ref: id}
	}
	return nil
}

func (s *SQLite) Transactions(ctx context.Context, accountName string, start, end time.Time) ([]domain.Transaction, error) {
	account, err := s.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.amount, t.tx_date, t.description, c.name, c.kind
		   FROM transactions t
		   JOIN categories c ON c.id = t.category_id
		  WHERE t.account_id = ? AND t.tx_date >= ? AND t.tx_date <= ?
		  ORDER BY t.tx_date ASC, t.rowid ASC`,
		account.ID, start.Format(domain.DateOnly), end.Format(domain.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t         domain.Transaction
			amountRaw string
			dateRaw   string
			kindRaw   string
		)
		if err := rows.Scan(&t.ID, &amountRaw, &dateRaw, &t.Description, &t.CategoryName, &kindRaw); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.AccountID = account.ID
		t.CategoryKind = domain.CategoryKind(kindRaw)
		if t.Amount, err = decimal.NewFromString(amountRaw); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if t.Date, err = time.Parse(domain.DateOnly, dateRaw); err != nil {
			return nil, fmt.Errorf("parse tx_date: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ============================================================
// Ledger aggregates
// ============================================================

// Balance is opening balance plus all-time income minus all-time expense.
func (s *SQLite) Balance(ctx context.Context, accountName string) (decimal.Decimal, error) {
	account, err := s.GetAccountByName(ctx, accountName)
	if err != nil {
		return decimal.Zero, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.amount, c.kind
		   FROM transactions t
		   JOIN categories c ON c.id = t.category_id
		  WHERE t.account_id = ?`, account.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	balance := account.OpeningBalance
	for rows.Next() {
		var amountRaw, kindRaw string
		if err := rows.Scan(&amountRaw, &kindRaw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount: %w", err)
		}
		if domain.CategoryKind(kindRaw) == domain.KindIncome {
			balance = balance.Add(amount)
		} else {
			balance = balance.Sub(amount)
		}
	}
	return balance, rows.Err()
}

func (s *SQLite) TotalsByCategory(ctx context.Context, accountName string, kind domain.CategoryKind) (map[string]decimal.Decimal, error) {
	account, err := s.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, t.amount
		   FROM transactions t
		   JOIN categories c ON c.id = t.category_id
		  WHERE t.account_id = ? AND c.kind = ?`, account.ID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("totals by category: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var name, amountRaw string
		if err := rows.Scan(&name, &amountRaw); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		totals[name] = totals[name].Add(amount)
	}
	return totals, rows.Err()
}

// ============================================================
// Planned movements
// ============================================================

func (s *SQLite) CreatePlannedMovement(ctx context.Context, pm *domain.PlannedMovement) error {
	active := 0
	if pm.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO planned_movements (id, account_id, name, amount, kind, recurrence, start_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pm.ID, pm.AccountID, pm.Name, pm.Amount.String(),
		string(pm.Kind), string(pm.Recurrence), pm.StartDate.Format(domain.DateOnly), active,
	)
	if err != nil {
		return fmt.Errorf("insert planned movement: %w", err)
	}
	return nil
}

func (s *SQLite) DeletePlannedMovement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM planned_movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete planned movement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.ErrNotFound{Resource: "planned movement", Ref: id}
	}
	return nil
}

func (s *SQLite) ListPlannedMovements(ctx context.Context, accountName string) ([]domain.PlannedMovement, error) {
	account, err := s.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, amount, kind, recurrence, start_date, active
		   FROM planned_movements WHERE account_id = ? ORDER BY name COLLATE NOCASE`,
		account.ID)
	if err != nil {
		return nil, fmt.Errorf("list planned movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.PlannedMovement, 0)
	for rows.Next() {
		var (
			pm        domain.PlannedMovement
			amountRaw string
			kindRaw   string
			recRaw    string
			dateRaw   string
			active    int
		)
		if err := rows.Scan(&pm.ID, &pm.Name, &amountRaw, &kindRaw, &recRaw, &dateRaw, &active); err != nil {
			return nil, fmt.Errorf("scan planned movement: %w", err)
		}
		pm.AccountID = account.ID
		pm.Kind = domain.PlannedMovementKind(kindRaw)
		pm.Recurrence = domain.Recurrence(recRaw)
		pm.Active = active == 1
		if pm.Amount, err = decimal.NewFromString(amountRaw); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if pm.StartDate, err = time.Parse(domain.DateOnly, dateRaw); err != nil {
			return nil, fmt.Errorf("parse start_date: %w", err)
		}
		movements = append(movements, pm)
	}
	return movements, rows.Err()
}

// ============================================================
// Financial goals
// ============================================================

func (s *SQLite) CreateGoal(ctx context.Context, goal *domain.FinancialGoal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO financial_goals (id, account_id, name, target_amount, current_amount, target_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.AccountID, goal.Name,
		goal.TargetAmount.String(), goal.CurrentAmount.String(),
		goal.TargetDate.Format(domain.DateOnly), goal.Description,
		goal.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert financial goal: %w", err)
	}
	return nil
}

func (s *SQLite) GoalByID(ctx context.Context, id string) (*domain.FinancialGoal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT g.id, g.account_id, a.name, g.name, g.target_amount, g.current_amount, g.target_date, g.description, g.created_at
		   FROM financial_goals g
		   JOIN accounts a ON a.id = g.account_id
		  WHERE g.id = ?`, id)

	goal, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "financial goal", Ref: id}
	}
	return goal, err
}

func (s *SQLite) GoalsByAccount(ctx context.Context, accountName string) ([]domain.FinancialGoal, error) {
	account, err := s.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.account_id, a.name, g.name, g.target_amount, g.current_amount, g.target_date, g.description, g.created_at
		   FROM financial_goals g
		   JOIN accounts a ON a.id = g.account_id
		  WHERE g.account_id = ?
		  ORDER BY g.target_date ASC, g.name COLLATE NOCASE`,
		account.ID)
	if err != nil {
		return nil, fmt.Errorf("list financial goals: %w", err)
	}
	defer rows.Close()

	goals := make([]domain.FinancialGoal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

func (s *SQLite) UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal) (*domain.FinancialGoal, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE financial_goals SET current_amount = ? WHERE id = ?`,
		current.String(), id)
	if err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &domain.ErrNotFound{Resource: "financial goal", Ref: id}
	}
	return s.GoalByID(ctx, id)
}

func scanGoal(scan func(dest ...any) error) (*domain.FinancialGoal, error) {
	var (
		g          domain.FinancialGoal
		targetRaw  string
		currentRaw string
		dateRaw    string
		createdRaw string
	)
	err := scan(&g.ID, &g.AccountID, &g.AccountName, &g.Name, &targetRaw, &currentRaw, &dateRaw, &g.Description, &createdRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan financial goal: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(targetRaw); err != nil {
		return nil, fmt.Errorf("parse target amount: %w", err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(currentRaw); err != nil {
		return nil, fmt.Errorf("parse current amount: %w", err)
	}
	if g.TargetDate, err = time.Parse(domain.DateOnly, dateRaw); err != nil {
		return nil, fmt.Errorf("parse target_date: %w", err)
	}
	if g.CreatedAt, err = time.Parse(time.RFC3339, createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &g, nil
}
