package order

import (
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/google/uuid"
)

// ChargeStatus is the order-level paid status derived from its payments.
type ChargeStatus string

const (
	StatusNone        ChargeStatus = "none"
	StatusPartial     ChargeStatus = "partial"
	StatusFull        ChargeStatus = "full"
	StatusOvercharged ChargeStatus = "overcharged"
)

// Order is the slice of the order aggregate the payment core reads and
// updates: the gross total and the paid rollup fields. Everything else
// about orders lives outside this module.
type Order struct {
	ID              uuid.UUID
	TotalGross      money.Money
	TotalAuthorized money.Money
	TotalCaptured   money.Money
	ChargeStatus    ChargeStatus
	PaidEventSent   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeriveChargeStatus recomputes the order charge status from the rollup
// amounts. Returns an error only on currency drift.
func (o *Order) DeriveChargeStatus() error {
	if o.TotalCaptured.IsZero() {
		o.ChargeStatus = StatusNone
		return nil
	}
	c, err := o.TotalCaptured.Compare(o.TotalGross)
	if err != nil {
		return err
	}
	switch {
	case c < 0:
		o.ChargeStatus = StatusPartial
	case c == 0:
		o.ChargeStatus = StatusFull
	default:
		o.ChargeStatus = StatusOvercharged
	}
	return nil
}

// IsFullyPaid reports whether captured covers the gross total exactly.
func (o *Order) IsFullyPaid() bool {
	return o.ChargeStatus == StatusFull
}
