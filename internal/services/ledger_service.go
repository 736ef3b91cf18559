package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"spesebot/internal/amqp"
	"spesebot/internal/core"
	"spesebot/internal/log"
	"spesebot/internal/storage"
)

// ExportHeader is the first line of every CSV export.
var ExportHeader = []string{"Expense ID", "Amount", "Description", "Date"}

// EventPublisher receives an event after every ledger write.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService is the only writer of expenses and the budget. Reads and
// writes go through the storage Manager, so every call pings first and
// reconnects if needed.
type LedgerService struct {
	repo      *storage.Repository
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
	location  *time.Location
}

type Option func(*LedgerService)

// WithClock overrides time.Now. Used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithLocation sets the time zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithPublisher enables ledger events. A nil publisher is ignored.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewLedgerService(m *storage.Manager, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo:     storage.NewRepository(m),
		logger:   log.Discard(),
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s
}

// Today is the current calendar date in the service's time zone.
func (s *LedgerService) Today() core.Date {
	return core.DateOf(s.now().In(s.location))
}

// AddExpense records one expense. A zero date means today.
func (s *LedgerService) AddExpense(ctx context.Context, amount core.Money, description string, date core.Date) (core.Expense, error) {
	if date.IsZero() {
		date = s.Today()
	}
	e := core.Expense{
		Amount:      core.NewMoney(amount.Round(2)),
		Description: strings.TrimSpace(description),
		Date:        date,
	}
	if !e.Amount.IsPositive() {
		return core.Expense{}, core.ErrInvalidAmount
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	id, err := s.repo.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	e.ID = id

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, e.ID,
		log.FieldAmount, e.Amount.String(),
		log.FieldDate, e.Date.String())
	s.publish(ctx, amqp.NewExpenseAddedEvent(e))
	return e, nil
}

// RemoveExpense deletes an expense by id. Removing an unknown id is not an
// error; the result reports whether a row was deleted.
func (s *LedgerService) RemoveExpense(ctx context.Context, id int64) (bool, error) {
	removed, err := s.repo.DeleteExpense(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove expense %d: %w", id, err)
	}

	if removed {
		s.logger.InfoContext(ctx, "Expense removed",
			log.FieldOperation, log.OpDelete,
			log.FieldExpenseID, id)
		s.publish(ctx, amqp.NewExpenseRemovedEvent(id))
	} else {
		s.logger.DebugContext(ctx, "Nothing to remove", log.FieldExpenseID, id)
	}
	return removed, nil
}

// ListRecentExpenses returns up to limit expenses, newest date first.
func (s *LedgerService) ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	if err := core.ValidateLimit(limit); err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, storage.ByDateDesc, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}
	return expenses, nil
}

// LargestTransactions returns up to limit expenses, largest amount first.
func (s *LedgerService) LargestTransactions(ctx context.Context, limit int) ([]core.Expense, error) {
	if err := core.ValidateLimit(limit); err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, storage.ByAmountDesc, limit)
	if err != nil {
		return nil, fmt.Errorf("list largest transactions: %w", err)
	}
	return expenses, nil
}

func (s *LedgerService) ExpensesForDate(ctx context.Context, date core.Date) ([]core.Expense, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	expenses, err := s.repo.ExpensesOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("expenses for %s: %w", date, err)
	}
	return expenses, nil
}

// GetBudget returns the monthly budget, or the default when the row is gone.
func (s *LedgerService) GetBudget(ctx context.Context) (core.Money, error) {
	amount, found, err := s.repo.Budget(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get budget: %w", err)
	}
	if !found {
		s.logger.WarnContext(ctx, "Budget row missing, using default", log.FieldAmount, core.DefaultBudget.String())
		return core.DefaultBudget, nil
	}
	return amount, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, amount core.Money) error {
	amount = core.NewMoney(amount.Round(2))
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if err := s.repo.UpdateBudget(ctx, amount); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldAmount, amount.String())
	s.publish(ctx, amqp.NewBudgetUpdatedEvent(amount))
	return nil
}

// CheckBudget compares the last 30 days (plus today) with the monthly budget.
func (s *LedgerService) CheckBudget(ctx context.Context) (core.BudgetReport, error) {
	return s.report(ctx, core.Monthly)
}

// CheckDailyBudget compares today's spending with a thirtieth of the budget.
func (s *LedgerService) CheckDailyBudget(ctx context.Context) (core.BudgetReport, error) {
	return s.report(ctx, core.Daily)
}

// CheckWeeklyBudget compares spending since Monday with seven thirtieths of the budget.
func (s *LedgerService) CheckWeeklyBudget(ctx context.Context) (core.BudgetReport, error) {
	return s.report(ctx, core.Weekly)
}

func (s *LedgerService) report(ctx context.Context, p core.Period) (core.BudgetReport, error) {
	monthly, err := s.GetBudget(ctx)
	if err != nil {
		return core.BudgetReport{}, err
	}

	window := core.WindowFor(p, s.Today())
	spent, err := s.repo.SumBetween(ctx, window)
	if err != nil {
		return core.BudgetReport{}, fmt.Errorf("check %s budget: %w", p, err)
	}

	r := core.BudgetReport{
		Period: p,
		Window: window,
		Spent:  spent,
		Budget: p.Allowance(monthly),
	}
	s.logger.DebugContext(ctx, "Budget checked",
		log.FieldOperation, log.OpReport,
		log.FieldPeriod, p,
		"spent", r.Spent.String(),
		"budget", r.Budget.String())
	return r, nil
}

// ExportExpensesCSV writes every expense to path and returns the number of
// data rows written. Amounts always carry two decimals.
func (s *LedgerService) ExportExpensesCSV(ctx context.Context, path string) (n int, err error) {
	expenses, err := s.repo.ListExpenses(ctx, storage.ByInsertion, 0)
	if err != nil {
		return 0, fmt.Errorf("export expenses: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close export file: %w", cerr))
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Amount.String(),
			e.Description,
			e.Date.String(),
		}
		if err := w.Write(record); err != nil {
			return n, fmt.Errorf("write expense %d: %w", e.ID, err)
		}
		n++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return n, fmt.Errorf("flush export: %w", err)
	}

	s.logger.InfoContext(ctx, "Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldPath, path,
		"rows", n)
	return n, nil
}

// publish never fails the caller: the write already happened.
func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			log.FieldError, err)
	}
}
