// Package core provides money parsing and handling utilities.
//
// Amounts are kept as arbitrary-precision decimals in the base currency;
// there is no currency code because the ledger is single-currency.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative amount in the base currency.
type Money struct {
	d decimal.Decimal
}

var half = decimal.New(5, -1)

// NewMoney creates Money from a whole amount.
func NewMoney(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// MustMoney parses s and panics on failure. Intended for constants and tests.
func MustMoney(s string) Money {
	return Money{d: decimal.RequireFromString(s)}
}

// ParseAmount parses user input into Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// thousands separators are not supported. Negative values are rejected.
//
// Examples:
//
//	ParseAmount("1000")   -> 1000, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("")       -> 0, ErrMissingAmount
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrMissingAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// AmountOrZero parses s and degrades to zero when it is not a valid amount.
func AmountOrZero(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulRate multiplies by a rate such as 0.05.
func (m Money) MulRate(rate decimal.Decimal) Money { return Money{d: m.d.Mul(rate)} }

// Round rounds to the nearest integer with halves going up (floor(x + 0.5)).
func (m Money) Round() Money {
	return Money{d: m.d.Add(half).Floor()}
}

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Percentage returns m as a percentage of total, or 0 when total is zero.
func (m Money) Percentage(total Money) float64 {
	if total.d.Sign() <= 0 {
		return 0
	}
	return m.d.Div(total.d).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Float64 is for display and spreadsheet cells only.
func (m Money) Float64() float64 { return m.d.InexactFloat64() }

// String renders the amount without trailing zeros, e.g. "1000" or "12.5".
func (m Money) String() string { return m.d.String() }

// MarshalJSON encodes Money as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or an empty string (zero).
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(s) == "" {
			*m = Money{}
			return nil
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = Money{d: d}
	return nil
}
