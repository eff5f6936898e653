package payment

import (
	"context"

	"github.com/cassiomorais/paycore/internal/domain/outbox"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// postprocess is the single source of truth for charge-status and
// captured-amount updates. It is called with the payment row lock held,
// after the transaction row exists, and triggers the order rollup whenever
// the captured amount moved.
func (o *Orchestrator) postprocess(ctx context.Context, p *payment.Payment, txn *payment.Transaction, resp *gateway.Response) error {
	if txn.AlreadyProcessed {
		// Replay of an event the rollup already consumed; nothing to apply.
		return nil
	}

	p.SetPSPReference(resp.PSPReference)
	if resp.CustomerID != "" {
		p.CustomerID = resp.CustomerID
	}
	if resp.PaymentMethodInfo != nil {
		p.SetMethodInfo(*resp.PaymentMethodInfo)
	}

	capturedChanged := false

	switch {
	case !txn.IsSuccess:
		// Failure rows are audit only; amounts and status never move.

	case txn.ActionRequired:
		p.RequireConfirmation(txn.ActionRequiredData)

	default:
		if p.ToConfirm {
			p.ClearConfirmation()
		}
		switch txn.Kind {
		case payment.KindCapture, payment.KindCharge, payment.KindRefundReversed:
			if err := p.ApplyCapture(txn.Amount); err != nil {
				return err
			}
			capturedChanged = true
		case payment.KindVoid:
			p.ApplyVoid()
		case payment.KindRefund:
			if err := p.ApplyRefund(txn.Amount); err != nil {
				return err
			}
			capturedChanged = true
		case payment.KindCaptureFailed:
			if p.CapturedAmount.IsPositive() {
				if err := p.ApplyCaptureFailed(txn.Amount); err != nil {
					return err
				}
				capturedChanged = true
			}
		case payment.KindPending:
			p.MarkPending()
		case payment.KindCancel:
			p.MarkCancelled()
		case payment.KindRefundOngoing:
			// Asynchronous refund in flight: amounts move only when the
			// final REFUND event lands.
		}
	}

	if err := o.payments.Update(ctx, p); err != nil {
		return err
	}
	if err := o.payments.MarkTransactionProcessed(ctx, txn.ID); err != nil {
		return err
	}
	txn.AlreadyProcessed = true

	if capturedChanged && p.OrderID != nil {
		if err := o.rollup.Execute(ctx, *p.OrderID); err != nil {
			// The transaction must survive a rollup failure; hand the
			// recomputation to the worker instead of failing the commit.
			o.logger.Error().Err(err).
				Str("payment_id", p.ID.String()).
				Str("order_id", p.OrderID.String()).
				Msg("order rollup failed, deferring to worker")
			return o.outbox.Insert(ctx, outbox.NewEntry("order", *p.OrderID, outbox.EventPaymentTransacted, map[string]any{
				"order_id":   p.OrderID.String(),
				"payment_id": p.ID.String(),
			}))
		}
	}
	return nil
}
