package payment

import (
	"context"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/pkg/saga"
	"github.com/google/uuid"
)

// Charge authorizes and captures in one call for gateways without a native
// one-shot flow. If the capture leg fails after a successful authorization,
// the authorization is voided so no funds stay reserved.
func (o *Orchestrator) Charge(ctx context.Context, paymentID uuid.UUID, token string, amount *money.Money) (*payment.Transaction, error) {
	var (
		authTxn    *payment.Transaction
		captureTxn *payment.Transaction
	)

	s := saga.New("charge").
		AddStep(saga.Step{
			Name: "authorize",
			Execute: func(ctx context.Context) error {
				txn, err := o.Authorize(ctx, paymentID, token)
				authTxn = txn
				return err
			},
			Compensate: func(ctx context.Context) error {
				if authTxn == nil || !authTxn.IsSuccess || authTxn.ActionRequired {
					return nil
				}
				_, err := o.Void(ctx, paymentID)
				return err
			},
		}).
		AddStep(saga.Step{
			Name: "capture",
			Execute: func(ctx context.Context) error {
				if authTxn != nil && authTxn.ActionRequired {
					// The client must finish the additional action first;
					// Confirm and a later Capture complete the flow.
					captureTxn = authTxn
					return nil
				}
				txn, err := o.Capture(ctx, paymentID, amount)
				captureTxn = txn
				return err
			},
		})

	if _, err := s.Execute(ctx); err != nil {
		if captureTxn != nil {
			return captureTxn, err
		}
		return authTxn, err
	}
	return captureTxn, nil
}
