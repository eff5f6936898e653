package money

import (
	"fmt"
	"strings"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/shopspring/decimal"
)

// Money is a decimal amount tied to an ISO-4217 currency. Arithmetic across
// differing currencies fails with ErrCurrencyMismatch.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// minorUnits maps currencies whose minor-unit exponent differs from 2.
var minorUnits = map[string]int32{
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
}

// New builds a Money from a decimal string, e.g. New("80.00", "USD").
func New(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if err := validateCurrency(currency); err != nil {
		return Money{}, err
	}
	return Money{Amount: d, Currency: strings.ToUpper(currency)}, nil
}

// MustNew is New for literals in tests and fixtures; it panics on bad input.
func MustNew(amount, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(currency)}
}

// FromDecimal wraps an existing decimal in a Money.
func FromDecimal(d decimal.Decimal, currency string) Money {
	return Money{Amount: d, Currency: strings.ToUpper(currency)}
}

func validateCurrency(currency string) error {
	if len(currency) != 3 {
		return domainErrors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

func (m Money) guard(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", domainErrors.ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.guard(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.guard(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Compare returns -1, 0 or 1.
func (m Money) Compare(other Money) (int, error) {
	if err := m.guard(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

// Equal reports m == other; differing currencies are never equal.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// MinorUnitExponent returns the currency's minor-unit exponent (2 for USD,
// 0 for JPY, 3 for KWD).
func MinorUnitExponent(currency string) int32 {
	if u, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return u
	}
	return 2
}

// Quantize rounds the amount to the currency's minor-unit exponent using
// banker's rounding.
func (m Money) Quantize() Money {
	return Money{Amount: m.Amount.RoundBank(MinorUnitExponent(m.Currency)), Currency: m.Currency}
}

// String renders a decimal string with the currency, e.g. "80.00 USD".
func (m Money) String() string {
	return m.Quantize().Amount.String() + " " + m.Currency
}

// AmountString renders the quantized amount alone, for wire and storage use.
func (m Money) AmountString() string {
	return m.Quantize().Amount.String()
}
