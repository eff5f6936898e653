package payment

import (
	"context"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/google/uuid"
)

// Authorize reserves the payment total against the customer's funding
// source using the provider token collected client-side.
func (o *Orchestrator) Authorize(ctx context.Context, paymentID uuid.UUID, token string) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "authorize",
		gate: func(p *payment.Payment, _ []*payment.Transaction) error {
			if !p.CanAuthorize() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "charged transactions cannot be authorized again")
			}
			return nil
		},
		token: func(*payment.Payment, []*payment.Transaction) (string, error) {
			return token, nil
		},
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			return g.Authorize(ctx, info)
		},
		fallbackKind: payment.KindAuth,
	})
}

// Capture transfers authorized funds. A nil amount captures the remaining
// capturable amount.
func (o *Orchestrator) Capture(ctx context.Context, paymentID uuid.UUID, amount *money.Money) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "capture",
		gate: func(p *payment.Payment, txns []*payment.Transaction) error {
			if !p.CanCapture() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "this payment cannot be captured")
			}
			if !hasSuccessful(txns, payment.KindAuth, payment.KindConfirm) {
				return domainErrors.NewPaymentError(domainErrors.CodeUnauthorizedTransaction, "cannot capture unauthorized transaction")
			}
			return nil
		},
		amount: func(p *payment.Payment) (money.Money, error) {
			a := p.RemainingCapturable()
			if amount != nil {
				a = *amount
			}
			if err := cleanAmount(a, p.RemainingCapturable()); err != nil {
				return money.Money{}, err
			}
			return a.Quantize(), nil
		},
		token: authTokenOrFail,
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			return g.Capture(ctx, info)
		},
		fallbackKind: payment.KindCapture,
	})
}

// Refund returns captured funds. A nil amount refunds everything captured.
func (o *Orchestrator) Refund(ctx context.Context, paymentID uuid.UUID, amount *money.Money) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "refund",
		gate: func(p *payment.Payment, _ []*payment.Transaction) error {
			if !p.CanRefund() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "refund is possible only after capture")
			}
			return nil
		},
		amount: func(p *payment.Payment) (money.Money, error) {
			a := p.RemainingRefundable()
			if amount != nil {
				a = *amount
			}
			if err := cleanAmount(a, p.RemainingRefundable()); err != nil {
				return money.Money{}, err
			}
			return a.Quantize(), nil
		},
		token: authTokenOrFail,
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			return g.Refund(ctx, info)
		},
		fallbackKind: payment.KindRefund,
	})
}

// Void cancels a pending authorization before any capture.
func (o *Orchestrator) Void(ctx context.Context, paymentID uuid.UUID) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "void",
		gate: func(p *payment.Payment, txns []*payment.Transaction) error {
			if !p.CanVoid() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "only pre-authorized transactions can be voided")
			}
			if !hasSuccessful(txns, payment.KindAuth, payment.KindConfirm) {
				return domainErrors.NewPaymentError(domainErrors.CodeUnauthorizedTransaction, "cannot void unauthorized transaction")
			}
			return nil
		},
		token: authTokenOrFail,
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			return g.Void(ctx, info)
		},
		fallbackKind: payment.KindVoid,
	})
}

// Confirm finalizes a to-confirm (3-DS, redirect) flow.
func (o *Orchestrator) Confirm(ctx context.Context, paymentID uuid.UUID) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "confirm",
		gate: func(p *payment.Payment, _ []*payment.Transaction) error {
			if !p.CanConfirm() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "payment does not await confirmation")
			}
			return nil
		},
		token: func(p *payment.Payment, txns []*payment.Transaction) (string, error) {
			if token, ok := lastSuccessfulToken(txns, payment.KindActionToConfirm); ok {
				return token, nil
			}
			return "", domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "no action-to-confirm transaction found")
		},
		data: func(p *payment.Payment) map[string]any {
			out := map[string]any{}
			if actionData, ok := p.ExtraData["action_required_data"].(map[string]any); ok {
				if paymentData, ok := actionData["paymentData"].(string); ok {
					out["payment_data"] = paymentData
				}
			}
			return out
		},
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			return g.ConfirmPayment(ctx, info)
		},
		fallbackKind: payment.KindConfirm,
	})
}

// Process runs the gateway's default one-shot flow for a fresh payment.
// Gateways answering with an additional action leave the payment in the
// to-confirm state instead of moving money.
func (o *Orchestrator) Process(ctx context.Context, paymentID uuid.UUID, token string, storeSource bool) (*payment.Transaction, error) {
	return o.run(ctx, paymentID, operation{
		name: "process",
		gate: func(p *payment.Payment, _ []*payment.Transaction) error {
			if !p.NotCharged() {
				return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "payment was already processed")
			}
			return nil
		},
		token: func(*payment.Payment, []*payment.Transaction) (string, error) {
			return token, nil
		},
		data: func(*payment.Payment) map[string]any {
			return map[string]any{"store_source": storeSource}
		},
		call: func(ctx context.Context, g gateway.Gateway, info gateway.PaymentInformation) (*gateway.Response, error) {
			info.ReuseSource = storeSource
			return g.ProcessPayment(ctx, info)
		},
		fallbackKind: payment.KindCharge,
	})
}
