package postgres

import (
	"fmt"
	"strings"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/shopspring/decimal"
)

// numericToMoney parses a NUMERIC column scanned as text into a Money in
// the given currency. Amounts are stored exact; no float conversion.
func numericToMoney(s, currency string) (money.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return money.Money{}, fmt.Errorf("empty numeric string")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return money.Money{}, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	return money.FromDecimal(d, currency), nil
}

// moneyToNumeric renders a Money amount for a NUMERIC column.
func moneyToNumeric(m money.Money) string {
	return m.Amount.String()
}
