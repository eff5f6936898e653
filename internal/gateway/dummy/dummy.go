// Package dummy is an in-process gateway used in development and tests.
// Outcomes are steered by the payment token: tokens prefixed "fail-" are
// declined, tokens prefixed "3ds-" demand an additional action.
package dummy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/google/uuid"
)

const (
	failPrefix = "fail-"
	threeDS    = "3ds-"
)

type Gateway struct {
	id      string
	latency time.Duration
}

type Option func(*Gateway)

// WithLatency simulates provider round-trip time.
func WithLatency(d time.Duration) Option {
	return func(g *Gateway) { g.latency = d }
}

// WithID overrides the registered gateway identifier.
func WithID(id string) Option {
	return func(g *Gateway) { g.id = id }
}

func New(opts ...Option) *Gateway {
	g := &Gateway{id: "dummy"}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) ID() string { return g.id }

func (g *Gateway) respond(ctx context.Context, kind payment.TransactionKind, info gateway.PaymentInformation) (*gateway.Response, error) {
	if g.latency > 0 {
		select {
		case <-time.After(g.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	resp := &gateway.Response{
		Kind:          kind,
		IsSuccess:     true,
		TransactionID: fmt.Sprintf("dummy_%s_%s", kind, uuid.New().String()[:8]),
		Amount:        info.Amount,
		PSPReference:  "dummy-" + info.PaymentID.String()[:8],
		RawResponse:   map[string]any{"simulated": true, "token": info.Token},
		PaymentMethodInfo: &payment.MethodInfo{
			Brand:      "visa",
			LastDigits: "4242",
			ExpMonth:   12,
			ExpYear:    2030,
			Type:       "card",
		},
	}

	switch {
	case strings.HasPrefix(info.Token, failPrefix):
		resp.IsSuccess = false
		resp.Error = "dummy: declined"
	case strings.HasPrefix(info.Token, threeDS) && (kind == payment.KindAuth || kind == payment.KindCapture || kind == payment.KindCharge):
		resp.Kind = payment.KindActionToConfirm
		resp.ActionRequired = true
		resp.ActionRequiredData = map[string]any{
			"url":         "https://dummy.example/3ds",
			"method":      "GET",
			"paymentData": info.Token,
		}
	}
	return resp, nil
}

func (g *Gateway) Authorize(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindAuth, info)
}

func (g *Gateway) Capture(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindCapture, info)
}

func (g *Gateway) Refund(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindRefund, info)
}

func (g *Gateway) Void(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindVoid, info)
}

func (g *Gateway) ProcessPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindCharge, info)
}

// ConfirmPayment settles the flow the additional action interrupted, so it
// answers with a capture like a real auto-capturing provider.
func (g *Gateway) ConfirmPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.respond(ctx, payment.KindCapture, info)
}

func (g *Gateway) GetClientToken(ctx context.Context, cfg gateway.TokenConfig) (string, error) {
	return "dummy_client_" + uuid.New().String(), nil
}

// ListPaymentSources implements the optional vault capability with a single
// static card.
func (g *Gateway) ListPaymentSources(ctx context.Context, customerID string) ([]gateway.CustomerSource, error) {
	if customerID == "" {
		return nil, nil
	}
	return []gateway.CustomerSource{{
		ID:      "dummy_src_" + customerID,
		Gateway: g.id,
		CreditCard: &payment.MethodInfo{
			Brand:      "visa",
			LastDigits: "4242",
			ExpMonth:   12,
			ExpYear:    2030,
			Type:       "card",
		},
	}}, nil
}
