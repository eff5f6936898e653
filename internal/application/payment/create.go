package payment

import (
	"context"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
)

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	Gateway    string
	Total      money.Money
	Email      string
	CheckoutID *uuid.UUID
	OrderID    *uuid.UUID
	Billing    payment.Address
	ReturnURL  string
	ExtraData  map[string]any
}

// CreatePayment creates the payment aggregate for a checkout or order after
// checking the gateway exists and accepts the currency.
func (o *Orchestrator) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	if _, _, err := o.registry.Get(req.Gateway); err != nil {
		return nil, err
	}
	if !o.registry.IsCurrencySupported(req.Total.Currency, req.Gateway) {
		return nil, domainErrors.NewPaymentError(domainErrors.CodeGatewayNotAvailable,
			"gateway "+req.Gateway+" does not support "+req.Total.Currency)
	}

	p, err := payment.NewPayment(req.Gateway, req.Total, req.Email, req.CheckoutID, req.OrderID, req.Billing, req.ReturnURL, req.ExtraData)
	if err != nil {
		return nil, err
	}
	if err := o.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("payment_id", p.ID.String()).
		Str("gateway", p.Gateway).
		Str("total", p.Total.String()).
		Msg("payment created")
	return p, nil
}

// GetPayment loads a payment by id.
func (o *Orchestrator) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return o.payments.GetByID(ctx, id)
}

// GetTransactions loads a payment's transaction log.
func (o *Orchestrator) GetTransactions(ctx context.Context, id uuid.UUID) ([]*payment.Transaction, error) {
	if _, err := o.payments.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return o.payments.GetTransactions(ctx, id)
}

// AttachOrder links a checkout-created payment to the order produced when
// the checkout completes, then rolls the order's paid totals up over the
// transactions already recorded against the payment. Attaching the same
// order twice is a no-op.
func (o *Orchestrator) AttachOrder(ctx context.Context, paymentID, orderID uuid.UUID) (*payment.Payment, error) {
	var attached *payment.Payment
	err := o.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := o.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if p.OrderID != nil {
			if *p.OrderID == orderID {
				attached = p
				return nil
			}
			return domainErrors.NewPaymentError(domainErrors.CodeInvalidState, "payment already belongs to another order")
		}

		p.AttachOrder(orderID)
		if err := o.payments.Update(txCtx, p); err != nil {
			return err
		}
		if err := o.rollup.Execute(txCtx, orderID); err != nil {
			return err
		}
		attached = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info().
		Str("payment_id", paymentID.String()).
		Str("order_id", orderID.String()).
		Msg("payment attached to order")
	return attached, nil
}

// DeactivatePayment disables a payment without a provider call, used when
// the owning checkout releases its payment before completion.
func (o *Orchestrator) DeactivatePayment(ctx context.Context, id uuid.UUID) error {
	return o.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := o.payments.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		p.Deactivate()
		return o.payments.Update(txCtx, p)
	})
}
