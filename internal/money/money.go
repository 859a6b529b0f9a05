// Package money carries amounts as decimal values paired with an ISO 4217
// currency code. Nothing here formats for display except Format, which is
// meant for the presentation edge only.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidAmount    = errors.New("invalid amount")
)

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func New(amount decimal.Decimal, code string) (Money, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return Money{Amount: amount, Currency: unit.String()}, nil
}

// Parse builds Money from a plain decimal string such as "450" or "2.50".
func Parse(amount, code string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, code)
}

func Zero(code string) Money {
	return Money{Amount: decimal.Zero, Currency: code}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

func (m Money) Mul(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Add sums two amounts. A zero value with no currency adopts the other
// side's currency so sums can start from Money{}.
func (m Money) Add(o Money) (Money, error) {
	switch {
	case m.Currency == "":
		return Money{Amount: m.Amount.Add(o.Amount), Currency: o.Currency}, nil
	case o.Currency == "" || o.Currency == m.Currency:
		return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
	default:
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
}

func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return strings.TrimSpace(m.Amount.StringFixed(2) + " " + m.Currency)
}
