// Package webhook ingests asynchronous provider callbacks and maps them
// back onto payment transactions.
package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// Event types accepted on the intake.
const (
	EventAuthSuccess    = "auth_success"
	EventAuthFailed     = "auth_failed"
	EventChargeSuccess  = "charge_success"
	EventChargeFailed   = "charge_failed"
	EventChargePending  = "charge_pending"
	EventCaptureSuccess = "capture_success"
	EventCaptureFailed  = "capture_failed"
	EventRefundSuccess  = "refund_success"
	EventRefundFailed   = "refund_failed"
	EventRefundOngoing  = "refund_ongoing"
	EventRefundReversed = "refund_reversed"
	EventVoidSuccess    = "void_success"
	EventCancelled      = "cancelled"
)

// IncomingEvent is the parsed form of one provider callback.
type IncomingEvent struct {
	Gateway           string         `json:"gateway"`
	EventType         string         `json:"event_type"`
	ProviderReference string         `json:"psp_reference"`
	Token             string         `json:"token"`
	Amount            string         `json:"amount"`
	Currency          string         `json:"currency"`
	Body              map[string]any `json:"-"`
}

// ParseEvent decodes a webhook body into an IncomingEvent.
func ParseEvent(gatewayID string, body []byte) (*IncomingEvent, error) {
	var ev IncomingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if ev.EventType == "" {
		return nil, fmt.Errorf("malformed webhook payload: missing event_type")
	}
	if ev.ProviderReference == "" && ev.Token == "" {
		return nil, fmt.Errorf("malformed webhook payload: missing psp_reference")
	}
	ev.Gateway = gatewayID

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		ev.Body = raw
	}
	return &ev, nil
}

// eventKinds maps event types to transaction kind and success flag.
var eventKinds = map[string]struct {
	kind    payment.TransactionKind
	success bool
}{
	EventAuthSuccess:    {payment.KindAuth, true},
	EventAuthFailed:     {payment.KindAuth, false},
	EventChargeSuccess:  {payment.KindCharge, true},
	EventChargeFailed:   {payment.KindCharge, false},
	EventChargePending:  {payment.KindPending, true},
	EventCaptureSuccess: {payment.KindCapture, true},
	EventCaptureFailed:  {payment.KindCaptureFailed, true},
	EventRefundSuccess:  {payment.KindRefund, true},
	EventRefundFailed:   {payment.KindRefund, false},
	EventRefundOngoing:  {payment.KindRefundOngoing, true},
	EventRefundReversed: {payment.KindRefundReversed, true},
	EventVoidSuccess:    {payment.KindVoid, true},
	EventCancelled:      {payment.KindCancel, true},
}

// ToGatewayResponse materializes the event as a gateway response for the
// orchestrator's post-processing pipeline. The payment supplies defaults
// for amount and currency when the event omits them.
func (e *IncomingEvent) ToGatewayResponse(p *payment.Payment) (*gateway.Response, error) {
	mapping, ok := eventKinds[e.EventType]
	if !ok {
		return nil, fmt.Errorf("unsupported event type %q", e.EventType)
	}

	amount := p.Total
	if e.Amount != "" {
		currency := e.Currency
		if currency == "" {
			currency = p.Currency()
		}
		m, err := money.New(e.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("malformed webhook amount %q: %w", e.Amount, err)
		}
		amount = m
	}

	token := e.Token
	if token == "" {
		token = e.ProviderReference
	}

	return &gateway.Response{
		Kind:          mapping.kind,
		IsSuccess:     mapping.success,
		TransactionID: token,
		Amount:        amount,
		PSPReference:  e.ProviderReference,
		RawResponse:   e.Body,
	}, nil
}
