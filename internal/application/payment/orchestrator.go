// Package payment implements the payment orchestrator: the operations that
// drive a payment through provider calls, persist transactions atomically
// and keep the charge-status state machine and order rollups consistent.
package payment

import (
	"context"
	"errors"
	"fmt"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Orchestrator coordinates payment operations across the registry, the
// payment repository and the order rollup. Every mutating operation runs
// its full critical section (gate, provider call, transaction append,
// post-process, rollup) inside one database transaction holding the
// payment row lock.
type Orchestrator struct {
	payments payment.Repository
	registry *registry.Registry
	tx       TransactionManager
	rollup   *orderApp.Rollup
	outbox   OutboxWriter
	logger   zerolog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	payments payment.Repository,
	reg *registry.Registry,
	tx TransactionManager,
	rollup *orderApp.Rollup,
	outboxWriter OutboxWriter,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		payments: payments,
		registry: reg,
		tx:       tx,
		rollup:   rollup,
		outbox:   outboxWriter,
		logger:   logger,
	}
}

// operation describes one orchestrator operation over the shared skeleton.
type operation struct {
	name string
	// gate validates the payment state before the provider is called.
	gate func(p *payment.Payment, txns []*payment.Transaction) error
	// amount picks the operation amount; nil means the payment total.
	amount func(p *payment.Payment) (money.Money, error)
	// token picks the provider token to send; defaults to last auth token.
	token func(p *payment.Payment, txns []*payment.Transaction) (string, error)
	// call invokes the adapter.
	call func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error)
	// fallbackKind classifies synthetic failure transactions when the
	// provider never produced a response.
	fallbackKind payment.TransactionKind
	// data merges operation-specific fields into the information blob.
	data func(p *payment.Payment) map[string]any
}

// run executes the uniform operation shape: load under lock, gate, dispatch,
// validate, append transaction, post-process, roll up.
func (o *Orchestrator) run(ctx context.Context, paymentID uuid.UUID, op operation) (*payment.Transaction, error) {
	var (
		txn   *payment.Transaction
		opErr error
	)

	err := o.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := o.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}

		txns, err := o.payments.GetTransactions(txCtx, p.ID)
		if err != nil {
			return err
		}

		if !p.IsActive {
			return domainErrors.NewPaymentError(domainErrors.CodeNotActive, "this payment is no longer active")
		}
		if err := op.gate(p, txns); err != nil {
			return err
		}

		amount := p.Total
		if op.amount != nil {
			if amount, err = op.amount(p); err != nil {
				return err
			}
		}

		adapter, breaker, err := o.registry.Get(p.Gateway)
		if err != nil {
			return err
		}

		token := ""
		if op.token != nil {
			if token, err = op.token(p, txns); err != nil {
				return err
			}
		}

		info := o.buildPaymentInformation(p, token, amount)
		if op.data != nil {
			for k, v := range op.data(p) {
				info.Data[k] = v
			}
		}

		resp := o.dispatch(txCtx, adapter, breaker, op, info)
		if err := gateway.Validate(p.Gateway, resp, p.Currency()); err != nil {
			// Contract violation: abort before any transaction is written.
			o.logger.Error().Err(err).
				Str("payment_id", p.ID.String()).
				Str("gateway", p.Gateway).
				Interface("raw_response", resp.RawResponse).
				Msg("gateway response failed contract validation")
			return err
		}

		txn, err = o.getOrCreateTransaction(txCtx, p, txns, resp)
		if err != nil {
			return err
		}

		if err := o.postprocess(txCtx, p, txn, resp); err != nil {
			return err
		}

		if !txn.IsSuccess {
			opErr = domainErrors.WrapPaymentError(domainErrors.CodePaymentError, txn.Error, nil)
			if opErr.(*domainErrors.PaymentError).Message == "" {
				opErr = domainErrors.NewPaymentError(domainErrors.CodePaymentError, "payment operation failed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		// The failure transaction has committed for audit; the caller sees
		// the provider refusal.
		return txn, opErr
	}
	return txn, nil
}

// dispatch invokes the adapter through its circuit breaker. Any Go error
// from the adapter (network failure, timeout, open breaker) becomes a
// synthetic failed response so a failure transaction is still recorded.
func (o *Orchestrator) dispatch(
	ctx context.Context,
	adapter gateway.Gateway,
	breaker *gobreaker.CircuitBreaker[*gateway.Response],
	op operation,
	info gateway.PaymentInformation,
) *gateway.Response {
	resp, err := breaker.Execute(func() (*gateway.Response, error) {
		return op.call(ctx, adapter, info)
	})
	if err != nil {
		o.logger.Warn().Err(err).
			Str("payment_id", info.PaymentID.String()).
			Str("operation", op.name).
			Msg("gateway call failed")
		return &gateway.Response{
			Kind:        op.fallbackKind,
			IsSuccess:   false,
			Amount:      info.Amount,
			Error:       err.Error(),
			RawResponse: map[string]any{"transport_error": err.Error()},
		}
	}
	return resp
}

func (o *Orchestrator) buildPaymentInformation(p *payment.Payment, token string, amount money.Money) gateway.PaymentInformation {
	return gateway.PaymentInformation{
		Token:         token,
		Amount:        amount,
		Billing:       p.Billing,
		OrderID:       p.OrderID,
		PaymentID:     p.ID,
		CustomerID:    p.CustomerID,
		CustomerEmail: p.BillingEmail,
		Data:          map[string]any{"return_url": p.ReturnURL},
	}
}

// lastSuccessfulToken returns the token of the most recent successful
// transaction of one of the given kinds.
func lastSuccessfulToken(txns []*payment.Transaction, kinds ...payment.TransactionKind) (string, bool) {
	for i := len(txns) - 1; i >= 0; i-- {
		if !txns[i].IsSuccess {
			continue
		}
		for _, k := range kinds {
			if txns[i].Kind == k {
				return txns[i].Token, true
			}
		}
	}
	return "", false
}

func hasSuccessful(txns []*payment.Transaction, kinds ...payment.TransactionKind) bool {
	_, ok := lastSuccessfulToken(txns, kinds...)
	return ok
}

// authTokenOrFail resolves the token proving the payment is authorized,
// required for capture, void and refund. A successful CONFIRM counts: it
// finalizes a 3-DS authorization on manual-capture providers, which answer
// the confirmation with kind CONFIRM rather than AUTH.
func authTokenOrFail(p *payment.Payment, txns []*payment.Transaction) (string, error) {
	if token, ok := lastSuccessfulToken(txns, payment.KindAuth, payment.KindConfirm); ok {
		return token, nil
	}
	if token, ok := lastSuccessfulToken(txns, payment.KindCharge, payment.KindCapture); ok {
		return token, nil
	}
	if p.PSPReference != "" {
		return p.PSPReference, nil
	}
	return "", domainErrors.NewPaymentError(domainErrors.CodeUnauthorizedTransaction, "cannot find successful auth transaction")
}

// cleanAmount validates an operation amount against a ceiling: positive,
// same currency, not exceeding the remainder.
func cleanAmount(amount, ceiling money.Money) error {
	if !amount.IsPositive() {
		return domainErrors.NewPaymentError(domainErrors.CodeAmountInvalid, "amount should be positive")
	}
	over, err := amount.GreaterThan(ceiling)
	if err != nil {
		if errors.Is(err, domainErrors.ErrCurrencyMismatch) {
			return domainErrors.WrapPaymentError(domainErrors.CodeAmountInvalid, "amount currency does not match payment", err)
		}
		return err
	}
	if over {
		return domainErrors.NewPaymentError(domainErrors.CodeAmountInvalid,
			fmt.Sprintf("amount exceeds the available %s", ceiling))
	}
	return nil
}
