package payment

import (
	"context"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/google/uuid"
)

// ApplyGatewayResponse feeds an externally obtained gateway response (a
// webhook event or a redirect-return confirmation) through the same
// validate, append and post-process pipeline the synchronous operations
// use, under the payment row lock. Replays of an already recorded event
// return the existing transaction unchanged.
func (o *Orchestrator) ApplyGatewayResponse(ctx context.Context, paymentID uuid.UUID, resp *gateway.Response) (*payment.Transaction, error) {
	var txn *payment.Transaction

	err := o.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := o.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if err := gateway.Validate(p.Gateway, resp, p.Currency()); err != nil {
			return err
		}
		if resp.IsSuccess && !resp.ActionRequired && !p.IsActive && mutatesAmounts(resp.Kind) {
			return domainErrors.NewPaymentError(domainErrors.CodeNotActive, "this payment is no longer active")
		}

		txns, err := o.payments.GetTransactions(txCtx, p.ID)
		if err != nil {
			return err
		}
		if txn, err = o.getOrCreateTransaction(txCtx, p, txns, resp); err != nil {
			return err
		}
		return o.postprocess(txCtx, p, txn, resp)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// mutatesAmounts reports whether the kind would move money or re-authorize,
// which an inactive payment must reject.
func mutatesAmounts(kind payment.TransactionKind) bool {
	switch kind {
	case payment.KindAuth, payment.KindCapture, payment.KindCharge, payment.KindConfirm, payment.KindRefund:
		return true
	}
	return false
}
