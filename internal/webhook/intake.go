package webhook

import (
	"context"
	"errors"
	"net/url"

	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownGateway rejects webhooks for unregistered gateway ids.
var ErrUnknownGateway = errors.New("unknown webhook gateway")

// JobEnqueuer dispatches asynchronous webhook processing to the worker.
type JobEnqueuer interface {
	EnqueueWebhook(ctx context.Context, ev *IncomingEvent) error
}

// Intake authenticates, parses and routes provider callbacks. Redirect
// returns are processed synchronously; notification webhooks are handed to
// the worker so the HTTP acknowledgement stays fast.
type Intake struct {
	payments     payment.Repository
	registry     *registry.Registry
	orchestrator *paymentApp.Orchestrator
	jobs         JobEnqueuer
	secrets      map[string][]byte
	logger       zerolog.Logger
}

// NewIntake creates the webhook intake. secrets maps gateway id to its
// webhook shared secret.
func NewIntake(
	payments payment.Repository,
	reg *registry.Registry,
	orchestrator *paymentApp.Orchestrator,
	jobs JobEnqueuer,
	secrets map[string][]byte,
	logger zerolog.Logger,
) *Intake {
	return &Intake{
		payments:     payments,
		registry:     reg,
		orchestrator: orchestrator,
		jobs:         jobs,
		secrets:      secrets,
		logger:       logger,
	}
}

// Authenticate verifies the sender's signature for the gateway.
func (i *Intake) Authenticate(gatewayID, signature string, body []byte) error {
	if _, ok := i.registry.Lookup(gatewayID); !ok {
		return ErrUnknownGateway
	}
	return VerifySignature(i.secrets[gatewayID], signature, body)
}

// Accept parses a notification webhook and dispatches it to the worker.
func (i *Intake) Accept(ctx context.Context, gatewayID string, body []byte) error {
	ev, err := ParseEvent(gatewayID, body)
	if err != nil {
		return err
	}
	if err := i.jobs.EnqueueWebhook(ctx, ev); err != nil {
		return err
	}
	i.logger.Info().
		Str("gateway", gatewayID).
		Str("event_type", ev.EventType).
		Str("psp_reference", ev.ProviderReference).
		Msg("webhook accepted")
	return nil
}

// Process resolves the payment for an event and feeds the materialized
// gateway response through the orchestrator pipeline. The worker calls
// this under the payment's distributed lock; replays collapse onto the
// existing transaction.
func (i *Intake) Process(ctx context.Context, ev *IncomingEvent) (*payment.Transaction, error) {
	p, err := i.resolvePayment(ctx, ev)
	if err != nil {
		return nil, err
	}
	resp, err := ev.ToGatewayResponse(p)
	if err != nil {
		return nil, err
	}
	if resp.Amount.Currency != p.Currency() {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return i.orchestrator.ApplyGatewayResponse(ctx, p.ID, resp)
}

func (i *Intake) resolvePayment(ctx context.Context, ev *IncomingEvent) (*payment.Payment, error) {
	if ev.ProviderReference != "" {
		p, err := i.payments.GetByPSPReference(ctx, ev.Gateway, ev.ProviderReference)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
			return nil, err
		}
	}
	if id, ok := ev.Body["payment_id"].(string); ok {
		paymentID, err := uuid.Parse(id)
		if err == nil {
			return i.payments.GetByID(ctx, paymentID)
		}
	}
	return nil, domainErrors.ErrPaymentNotFound
}

// HandleRedirect finishes an additional-action flow when the provider
// redirects the customer back. It calls the adapter's confirm operation
// with the redirect parameters, pushes the outcome through post-processing
// and returns the storefront Location to 302 to.
func (i *Intake) HandleRedirect(ctx context.Context, gatewayID string, paymentID uuid.UUID, params map[string]string) (string, error) {
	p, err := i.payments.GetByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if p.Gateway != gatewayID {
		return "", domainErrors.ErrPaymentNotFound
	}

	adapter, _, err := i.registry.Get(gatewayID)
	if err != nil {
		return "", err
	}

	details := make(map[string]any, len(params))
	for k, v := range params {
		details[k] = v
	}
	info := gateway.PaymentInformation{
		PaymentID:     p.ID,
		Amount:        p.Total,
		OrderID:       p.OrderID,
		CustomerEmail: p.BillingEmail,
		Data:          map[string]any{"details": details},
	}
	if actionData, ok := p.ExtraData["action_required_data"].(map[string]any); ok {
		if paymentData, ok := actionData["paymentData"].(string); ok {
			info.Data["payment_data"] = paymentData
		}
	}

	resp, err := adapter.ConfirmPayment(ctx, info)
	if err != nil {
		resp = &gateway.Response{
			Kind:        payment.KindActionToConfirm,
			IsSuccess:   false,
			Amount:      p.Total,
			Error:       err.Error(),
			RawResponse: map[string]any{"transport_error": err.Error()},
		}
	}

	txn, err := i.orchestrator.ApplyGatewayResponse(ctx, p.ID, resp)
	if err != nil {
		return "", err
	}
	return i.redirectLocation(p, txn, resp), nil
}

// redirectLocation builds {return_url}?payment={id}&checkout={id}&resultCode={...}.
func (i *Intake) redirectLocation(p *payment.Payment, txn *payment.Transaction, resp *gateway.Response) string {
	u, err := url.Parse(p.ReturnURL)
	if err != nil || p.ReturnURL == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("payment", p.ID.String())
	if p.CheckoutID != nil {
		q.Set("checkout", p.CheckoutID.String())
	}
	resultCode := string(txn.Kind)
	if code, ok := resp.RawResponse["resultCode"].(string); ok && code != "" {
		resultCode = code
	}
	q.Set("resultCode", resultCode)
	u.RawQuery = q.Encode()
	return u.String()
}
