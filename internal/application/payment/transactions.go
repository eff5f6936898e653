package payment

import (
	"context"

	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// getOrCreateTransaction appends a transaction for the response, collapsing
// provider retries: when a row already matches the idempotency tuple
// (token, kind, amount, success, action_required), the existing row is
// returned and nothing is written. This gives at-most-once effect per
// provider redelivery.
func (o *Orchestrator) getOrCreateTransaction(
	ctx context.Context,
	p *payment.Payment,
	txns []*payment.Transaction,
	resp *gateway.Response,
) (*payment.Transaction, error) {
	for _, existing := range txns {
		if existing.Matches(resp.Kind, resp.TransactionID, resp.IsSuccess, resp.ActionRequired, resp.Amount) {
			resp.TransactionAlreadyProcessed = true
			return existing, nil
		}
	}

	txn := payment.NewTransaction(p.ID, resp.Kind, resp.TransactionID, resp.IsSuccess, resp.Amount)
	txn.ActionRequired = resp.ActionRequired
	txn.ActionRequiredData = resp.ActionRequiredData
	txn.GatewayResponse = resp.RawResponse
	txn.Error = resp.Error

	if err := o.payments.AddTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
