// Package core provides money parsing and handling utilities.
//
// This file contains the decimal Money type used for expense amounts and
// budgets, and the parser that turns chat input into it.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBudget is the monthly budget seeded into a fresh ledger.
var DefaultBudget = MustParseAmount("1300.00")

// Money is a decimal currency amount. It scans from and stores into
// DECIMAL(10,2) columns through the embedded decimal.Decimal.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// ParseAmount converts a decimal string to Money rounded half-up to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35 (half-up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// MustParseAmount is ParseAmount for constants; it panics on bad input.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String formats the amount with exactly two fraction digits.
func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) Minus(o Money) Money {
	return Money{Decimal: m.Sub(o.Decimal)}
}

// Abs drops the sign.
func (m Money) Abs() Money {
	return Money{Decimal: m.Decimal.Abs()}
}
