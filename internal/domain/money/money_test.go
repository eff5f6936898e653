package money_test

import (
	"testing"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Valid(t *testing.T) {
	m, err := money.New("80.00", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.Equal(t, "80", m.Amount.String())
}

func TestNew_BadAmount(t *testing.T) {
	_, err := money.New("eighty", "USD")
	assert.Error(t, err)
}

func TestNew_BadCurrency(t *testing.T) {
	_, err := money.New("10.00", "US")
	assert.Error(t, err)
}

func TestAdd_Sub(t *testing.T) {
	a := money.MustNew("80.00", "USD")
	b := money.MustNew("0.01", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "80.01", sum.AmountString())

	diff, err := sum.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, "0.01", diff.AmountString())
}

func TestArithmetic_CurrencyMismatch(t *testing.T) {
	usd := money.MustNew("10.00", "USD")
	eur := money.MustNew("10.00", "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, domainErrors.ErrCurrencyMismatch)

	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, domainErrors.ErrCurrencyMismatch)

	_, err = usd.Compare(eur)
	assert.ErrorIs(t, err, domainErrors.ErrCurrencyMismatch)
}

func TestCompare(t *testing.T) {
	a := money.MustNew("10.00", "USD")
	b := money.MustNew("10.000", "USD")
	c := money.MustNew("10.01", "USD")

	eq, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, 0, eq)

	lt, err := a.LessThan(c)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := c.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)
}

func TestEqual_DifferentCurrenciesNeverEqual(t *testing.T) {
	assert.False(t, money.MustNew("10.00", "USD").Equal(money.MustNew("10.00", "EUR")))
	assert.True(t, money.MustNew("10.00", "USD").Equal(money.MustNew("10", "USD")))
}

func TestMinorUnitExponent(t *testing.T) {
	assert.Equal(t, int32(2), money.MinorUnitExponent("USD"))
	assert.Equal(t, int32(0), money.MinorUnitExponent("JPY"))
	assert.Equal(t, int32(3), money.MinorUnitExponent("KWD"))
	assert.Equal(t, int32(0), money.MinorUnitExponent("jpy"))
}

func TestQuantize_BankersRounding(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"10.005", "USD", "10"},
		{"10.015", "USD", "10.02"},
		{"10.4", "JPY", "10"},
		{"10.5", "JPY", "10"},
		{"11.5", "JPY", "12"},
		{"1.0005", "KWD", "1"},
	}
	for _, tt := range tests {
		got := money.MustNew(tt.amount, tt.currency).Quantize()
		assert.Equal(t, tt.want, got.Amount.String(), "%s %s", tt.amount, tt.currency)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "80 USD", money.MustNew("80", "USD").String())
	assert.Equal(t, "0.01 USD", money.MustNew("0.01", "USD").String())
}

func TestPredicates(t *testing.T) {
	assert.True(t, money.MustNew("0.01", "USD").IsPositive())
	assert.True(t, money.Zero("USD").IsZero())
	assert.True(t, money.MustNew("-1", "USD").IsNegative())
	assert.False(t, money.Zero("USD").IsPositive())
}
