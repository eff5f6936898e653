// Package order derives order-level paid status from the payments
// attached to an order.
package order

import (
	"context"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/cassiomorais/paycore/internal/domain/outbox"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OutboxWriter is the port for emitting domain events transactionally.
type OutboxWriter interface {
	Insert(ctx context.Context, entry *outbox.Entry) error
}

// Rollup recomputes an order's authorized and captured totals from its
// payments. It must run inside the caller's transaction, after the payment
// lock was taken: lock order is always Payment before Order.
type Rollup struct {
	orders   order.Repository
	payments payment.Repository
	outbox   OutboxWriter
	logger   zerolog.Logger
}

// NewRollup creates a Rollup.
func NewRollup(orders order.Repository, payments payment.Repository, outboxWriter OutboxWriter, logger zerolog.Logger) *Rollup {
	return &Rollup{orders: orders, payments: payments, outbox: outboxWriter, logger: logger}
}

// Execute recomputes paid totals for the order and emits OrderFullyPaid on
// the first transition into the FULL status.
func (r *Rollup) Execute(ctx context.Context, orderID uuid.UUID) error {
	o, err := r.orders.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	currency := o.TotalGross.Currency

	payments, err := r.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	totalCaptured := money.Zero(currency)
	totalAuthorized := money.Zero(currency)
	for _, p := range payments {
		if totalCaptured, err = totalCaptured.Add(p.CapturedAmount); err != nil {
			return err
		}
		authorized, err := r.outstandingAuthorized(ctx, p)
		if err != nil {
			return err
		}
		if totalAuthorized, err = totalAuthorized.Add(authorized); err != nil {
			return err
		}
	}

	wasFullyPaid := o.IsFullyPaid()
	o.TotalCaptured = totalCaptured
	o.TotalAuthorized = totalAuthorized
	if err := o.DeriveChargeStatus(); err != nil {
		return err
	}

	if o.IsFullyPaid() && !wasFullyPaid && !o.PaidEventSent {
		entry := outbox.NewEntry("order", o.ID, outbox.EventOrderFullyPaid, map[string]any{
			"order_id":       o.ID.String(),
			"total_captured": o.TotalCaptured.AmountString(),
			"currency":       currency,
		})
		if err := r.outbox.Insert(ctx, entry); err != nil {
			return err
		}
		o.PaidEventSent = true
		r.logger.Info().Str("order_id", o.ID.String()).Msg("order fully paid")
	}

	return r.orders.UpdatePaidAmounts(ctx, o)
}

// outstandingAuthorized returns the payment's authorized amount not yet
// captured or voided, floored at zero.
func (r *Rollup) outstandingAuthorized(ctx context.Context, p *payment.Payment) (money.Money, error) {
	zero := money.Zero(p.Currency())
	if !p.IsActive && !p.CapturedAmount.IsPositive() {
		// Voided or abandoned authorization holds nothing.
		return zero, nil
	}

	txns, err := r.payments.GetTransactions(ctx, p.ID)
	if err != nil {
		return zero, err
	}

	authorized := zero
	for _, t := range txns {
		if !t.IsSuccess {
			continue
		}
		switch t.Kind {
		// CONFIRM finalizes a 3-DS authorization on manual-capture
		// providers and holds funds the same way AUTH does.
		case payment.KindAuth, payment.KindConfirm:
			if authorized, err = authorized.Add(t.Amount); err != nil {
				return zero, err
			}
		case payment.KindVoid:
			return zero, nil
		}
	}

	outstanding, err := authorized.Sub(p.CapturedAmount)
	if err != nil {
		return zero, err
	}
	if outstanding.IsNegative() {
		return zero, nil
	}
	return outstanding, nil
}
