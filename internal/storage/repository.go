package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spesebot/internal/core"
	"spesebot/internal/log"
)

// ExpenseOrder picks one of the fixed orderings the ledger lists by.
type ExpenseOrder int

const (
	// ByInsertion returns rows in id order (used by exports).
	ByInsertion ExpenseOrder = iota
	// ByDateDesc returns the most recent expenses first.
	ByDateDesc
	// ByAmountDesc returns the largest expenses first.
	ByAmountDesc
)

func (o ExpenseOrder) clause() string {
	switch o {
	case ByDateDesc:
		return "ORDER BY expense_date DESC, expense_id DESC"
	case ByAmountDesc:
		return "ORDER BY expense_amount DESC, expense_id DESC"
	default:
		return "ORDER BY expense_id"
	}
}

const (
	budgetID       = 1
	expenseColumns = "expense_id, expense_amount, expense_description, expense_date"
)

// Repository runs the ledger's queries through the Manager's guarded Do.
// All caller data is bound as parameters.
type Repository struct {
	m *Manager
}

func NewRepository(m *Manager) *Repository {
	return &Repository{m: m}
}

// InsertExpense stores e and returns the id assigned by the database.
func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO expenses (expense_amount, expense_description, expense_date) VALUES (?, ?, ?)`,
			e.Amount, e.Description, e.Date)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	r.m.logger.DebugContext(ctx, "Expense saved",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, id,
		log.FieldAmount, e.Amount.String(),
		log.FieldDate, e.Date.String())

	return id, nil
}

// DeleteExpense removes the expense with id. A missing id is not an error;
// the boolean reports whether a row was actually removed.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	var affected int64
	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM expenses WHERE expense_id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	return affected > 0, nil
}

// ListExpenses returns up to limit expenses in the given order; limit <= 0 means all.
func (r *Repository) ListExpenses(ctx context.Context, order ExpenseOrder, limit int) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ` + order.clause()
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	expenses, err := r.queryExpenses(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// ExpensesOn returns every expense dated d.
func (r *Repository) ExpensesOn(ctx context.Context, d core.Date) ([]core.Expense, error) {
	expenses, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE expense_date = ? ORDER BY expense_id`, d)
	if err != nil {
		return nil, fmt.Errorf("get expenses for %s: %w", d, err)
	}
	return expenses, nil
}

// SumBetween totals expense amounts inside the inclusive window. No rows sum to zero.
func (r *Repository) SumBetween(ctx context.Context, w core.Window) (core.Money, error) {
	var total core.Money
	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(expense_amount), 0) FROM expenses WHERE expense_date >= ? AND expense_date <= ?`,
			w.From, w.To).Scan(&total)
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses from %s to %s: %w", w.From, w.To, err)
	}
	return total, nil
}

// Budget reads the singleton budget row. found is false when the row is missing.
func (r *Repository) Budget(ctx context.Context) (amount core.Money, found bool, err error) {
	err = r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT amount FROM budget WHERE id = ?`, budgetID).Scan(&amount)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, fmt.Errorf("get budget: %w", err)
	}
	return amount, true, nil
}

// UpdateBudget overwrites the singleton budget amount.
func (r *Repository) UpdateBudget(ctx context.Context, amount core.Money) error {
	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `UPDATE budget SET amount = ? WHERE id = ?`, amount, budgetID)
		return err
	})
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// EnsureBudget inserts the singleton row with amount unless it already exists.
func (r *Repository) EnsureBudget(ctx context.Context, amount core.Money) error {
	insert := `INSERT IGNORE INTO budget (id, amount) VALUES (?, ?)`
	if r.m.Driver() == SQLite {
		insert = `INSERT OR IGNORE INTO budget (id, amount) VALUES (?, ?)`
	}

	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, insert, budgetID, amount)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed budget: %w", err)
	}
	return nil
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	var expenses []core.Expense
	err := r.m.Do(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		expenses = expenses[:0]
		for rows.Next() {
			var (
				e    core.Expense
				desc sql.NullString
			)
			if err := rows.Scan(&e.ID, &e.Amount, &desc, &e.Date); err != nil {
				return fmt.Errorf("scan expense: %w", err)
			}
			e.Description = desc.String
			expenses = append(expenses, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}
