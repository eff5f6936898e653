package postgres

import (
	"testing"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericToMoney_Success(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"whole amount", "100", "100"},
		{"two decimals", "100.50", "100.5"},
		{"six decimals", "0.000001", "0.000001"},
		{"zero", "0", "0"},
		{"zero with decimals", "0.000000", "0"},
		{"negative", "-10.50", "-10.5"},
		{"with whitespace", "  50.25  ", "50.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := numericToMoney(tt.input, "USD")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m.Amount.String())
			assert.Equal(t, "USD", m.Currency)
		})
	}
}

func TestNumericToMoney_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"invalid format", "abc"},
		{"special characters", "$100.00"},
		{"multiple decimals", "10.5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := numericToMoney(tt.input, "USD")
			assert.Error(t, err)
		})
	}
}

func TestMoneyToNumeric(t *testing.T) {
	assert.Equal(t, "80", moneyToNumeric(money.MustNew("80.00", "USD")))
	assert.Equal(t, "0.01", moneyToNumeric(money.MustNew("0.01", "USD")))
	assert.Equal(t, "-5.5", moneyToNumeric(money.MustNew("-5.50", "USD")))
}

func TestMoneyRoundTrip(t *testing.T) {
	original := money.MustNew("123.456789", "USD")
	parsed, err := numericToMoney(moneyToNumeric(original), "USD")
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
}
