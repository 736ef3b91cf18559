package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is the length of a budget check.
type Period string

const (
	Monthly Period = "monthly"
	Weekly  Period = "weekly"
	Daily   Period = "daily"
)

// daysPerMonth is the divisor used to derive daily and weekly allowances.
const daysPerMonth = 30

type (
	// Window is an inclusive date range.
	Window struct {
		From Date
		To   Date
	}

	// BudgetReport compares what was spent in a window against the allowance for it.
	BudgetReport struct {
		Period Period
		Window Window
		Spent  Money
		Budget Money
	}
)

// WindowFor returns the aggregation window of p ending on today.
//
// Monthly covers the 30 days before today plus today. Weekly starts on the
// most recent Monday (today when today is a Monday). Daily is just today.
func WindowFor(p Period, today Date) Window {
	switch p {
	case Monthly:
		return Window{From: today.AddDays(-daysPerMonth), To: today}
	case Weekly:
		return Window{From: today.AddDays(-daysSinceMonday(today.Weekday())), To: today}
	default:
		return Window{From: today, To: today}
	}
}

// daysSinceMonday is (weekday - 1) mod 7 with Sunday = 0, kept non-negative.
func daysSinceMonday(wd time.Weekday) int {
	return (int(wd) - 1 + 7) % 7
}

// Allowance scales a monthly budget down to the period.
func (p Period) Allowance(monthly Money) Money {
	switch p {
	case Daily:
		return Money{Decimal: monthly.Div(decimal.NewFromInt(daysPerMonth))}
	case Weekly:
		return Money{Decimal: monthly.Mul(decimal.NewFromInt(7)).Div(decimal.NewFromInt(daysPerMonth))}
	default:
		return monthly
	}
}

// contains reports whether d falls inside the inclusive window.
func (w Window) contains(d Date) bool {
	return !d.Before(w.From.Time) && !d.After(w.To.Time)
}

// Difference is Spent minus Budget; positive means overspent.
func (r BudgetReport) Difference() Money {
	return r.Spent.Minus(r.Budget)
}

func (r BudgetReport) Overspent() bool {
	return r.Difference().IsPositive()
}

// String renders the status message sent back to the chat.
func (r BudgetReport) String() string {
	status := "✅ Underspent"
	if r.Overspent() {
		status = "🚨❌ Overspent"
	}
	diff := r.Difference().Abs()

	switch r.Period {
	case Daily:
		return fmt.Sprintf("%s today by %s\nTotal spent today: %s\nBudget for today: %s",
			status, diff, r.Spent, r.Budget)
	case Weekly:
		return fmt.Sprintf("%s this week by %s\nTotal spent this week: %s\nWeekly budget: %s",
			status, diff, r.Spent, r.Budget)
	default:
		return fmt.Sprintf("%s by %s\nTotal spent: %s\nBudget: %s\n(from %s to %s).",
			status, diff, r.Spent, r.Budget, r.Window.From, r.Window.To)
	}
}
