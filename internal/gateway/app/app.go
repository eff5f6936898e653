// Package app adapts webhook-driven third-party providers ("apps") that
// live behind a network endpoint rather than an in-process SDK. Every
// gateway operation becomes a signed HTTP POST carrying a canonical
// envelope; the app answers synchronously and may additionally deliver
// asynchronous webhooks through the intake.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// Event types posted to the app endpoint.
const (
	EventAuthorize   = "payment_authorize"
	EventCapture     = "payment_capture"
	EventRefund      = "payment_refund"
	EventVoid        = "payment_void"
	EventProcess     = "payment_process"
	EventConfirm     = "payment_confirm"
	EventClientToken = "payment_client_token"
)

// Gateway calls a single registered app. The id is "app:<pk>".
type Gateway struct {
	id        string
	transport *transport
}

// New builds an app gateway for the given endpoint, signing with the app's
// per-tenant secret.
func New(id, endpoint string, secret []byte, timeout time.Duration) *Gateway {
	return &Gateway{
		id:        id,
		transport: newTransport(endpoint, secret, timeout),
	}
}

func (g *Gateway) ID() string { return g.id }

// wireResponse is the body an app returns for a payment operation.
type wireResponse struct {
	Kind               string         `json:"kind"`
	IsSuccess          bool           `json:"is_success"`
	ActionRequired     bool           `json:"action_required"`
	ActionRequiredData map[string]any `json:"action_required_data,omitempty"`
	TransactionID      string         `json:"transaction_id"`
	Amount             string         `json:"amount"`
	Currency           string         `json:"currency"`
	Error              string         `json:"error,omitempty"`
	PSPReference       string         `json:"psp_reference,omitempty"`
	CustomerID         string         `json:"customer_id,omitempty"`
	AlreadyProcessed   bool           `json:"already_processed,omitempty"`
}

func (g *Gateway) call(ctx context.Context, eventType string, fallbackKind payment.TransactionKind, info gateway.PaymentInformation) (*gateway.Response, error) {
	payload := map[string]any{
		"payment_id":     info.PaymentID.String(),
		"token":          info.Token,
		"amount":         info.Amount.AmountString(),
		"currency":       info.Amount.Currency,
		"customer_email": info.CustomerEmail,
		"customer_id":    info.CustomerID,
		"reuse_source":   info.ReuseSource,
	}
	if info.OrderID != nil {
		payload["order_id"] = info.OrderID.String()
	}
	for k, v := range info.Data {
		payload[k] = v
	}

	body, err := g.transport.post(ctx, eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("app %s: %s: %w", g.id, eventType, err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("app %s: decode response: %w", g.id, err)
	}
	return g.toResponse(wire, fallbackKind, info)
}

func (g *Gateway) toResponse(wire wireResponse, fallbackKind payment.TransactionKind, info gateway.PaymentInformation) (*gateway.Response, error) {
	kind := payment.TransactionKind(wire.Kind)
	if wire.Kind == "" {
		kind = fallbackKind
	}

	amount := info.Amount
	if wire.Amount != "" {
		currency := wire.Currency
		if currency == "" {
			currency = info.Amount.Currency
		}
		m, err := money.New(wire.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("app %s: bad amount %q: %w", g.id, wire.Amount, err)
		}
		amount = m
	}

	// Raw response is rebuilt from parsed fields so the shared secret and
	// transport headers can never leak into the audit blob.
	raw := map[string]any{
		"kind":           wire.Kind,
		"is_success":     wire.IsSuccess,
		"transaction_id": wire.TransactionID,
		"amount":         wire.Amount,
		"currency":       wire.Currency,
	}
	if wire.Error != "" {
		raw["error"] = wire.Error
	}

	return &gateway.Response{
		Kind:                        kind,
		IsSuccess:                   wire.IsSuccess,
		ActionRequired:              wire.ActionRequired,
		ActionRequiredData:          wire.ActionRequiredData,
		TransactionID:               wire.TransactionID,
		Amount:                      amount,
		Error:                       wire.Error,
		RawResponse:                 raw,
		CustomerID:                  wire.CustomerID,
		PSPReference:                wire.PSPReference,
		TransactionAlreadyProcessed: wire.AlreadyProcessed,
	}, nil
}

func (g *Gateway) Authorize(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventAuthorize, payment.KindAuth, info)
}

func (g *Gateway) Capture(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventCapture, payment.KindCapture, info)
}

func (g *Gateway) Refund(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventRefund, payment.KindRefund, info)
}

func (g *Gateway) Void(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventVoid, payment.KindVoid, info)
}

func (g *Gateway) ProcessPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventProcess, payment.KindCharge, info)
}

func (g *Gateway) ConfirmPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.call(ctx, EventConfirm, payment.KindConfirm, info)
}

func (g *Gateway) GetClientToken(ctx context.Context, cfg gateway.TokenConfig) (string, error) {
	body, err := g.transport.post(ctx, EventClientToken, map[string]any{
		"customer_id": cfg.CustomerID,
		"channel_id":  cfg.ChannelID,
	})
	if err != nil {
		return "", fmt.Errorf("app %s: client token: %w", g.id, err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("app %s: decode client token: %w", g.id, err)
	}
	return out.Token, nil
}
