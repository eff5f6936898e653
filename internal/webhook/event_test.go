package webhook_test

import (
	"testing"

	domainPayment "github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/testutil"
	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_Valid(t *testing.T) {
	body := []byte(`{"event_type":"capture_success","psp_reference":"psp-1","amount":"30.00","currency":"USD"}`)
	ev, err := webhook.ParseEvent("adyen", body)
	require.NoError(t, err)
	assert.Equal(t, "adyen", ev.Gateway)
	assert.Equal(t, webhook.EventCaptureSuccess, ev.EventType)
	assert.Equal(t, "psp-1", ev.ProviderReference)
	assert.Equal(t, "capture_success", ev.Body["event_type"])
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"missing event type", `{"psp_reference":"psp-1"}`},
		{"missing reference and token", `{"event_type":"capture_success"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := webhook.ParseEvent("adyen", []byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestToGatewayResponse_KnownEvents(t *testing.T) {
	p := testutil.NewTestPayment("adyen", "80.00", "USD")

	tests := []struct {
		eventType string
		kind      domainPayment.TransactionKind
		success   bool
	}{
		{webhook.EventAuthSuccess, domainPayment.KindAuth, true},
		{webhook.EventAuthFailed, domainPayment.KindAuth, false},
		{webhook.EventChargeSuccess, domainPayment.KindCharge, true},
		{webhook.EventChargePending, domainPayment.KindPending, true},
		{webhook.EventCaptureSuccess, domainPayment.KindCapture, true},
		{webhook.EventCaptureFailed, domainPayment.KindCaptureFailed, true},
		{webhook.EventRefundSuccess, domainPayment.KindRefund, true},
		{webhook.EventRefundOngoing, domainPayment.KindRefundOngoing, true},
		{webhook.EventRefundReversed, domainPayment.KindRefundReversed, true},
		{webhook.EventVoidSuccess, domainPayment.KindVoid, true},
		{webhook.EventCancelled, domainPayment.KindCancel, true},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			ev := &webhook.IncomingEvent{
				Gateway:           "adyen",
				EventType:         tt.eventType,
				ProviderReference: "psp-1",
			}
			resp, err := ev.ToGatewayResponse(p)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.success, resp.IsSuccess)
		})
	}
}

func TestToGatewayResponse_AmountDefaultsToTotal(t *testing.T) {
	p := testutil.NewTestPayment("adyen", "80.00", "USD")
	ev := &webhook.IncomingEvent{EventType: webhook.EventCaptureSuccess, ProviderReference: "psp-1"}

	resp, err := ev.ToGatewayResponse(p)
	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(p.Total))
	assert.Equal(t, "psp-1", resp.TransactionID)
}

func TestToGatewayResponse_ExplicitAmount(t *testing.T) {
	p := testutil.NewTestPayment("adyen", "80.00", "USD")
	ev := &webhook.IncomingEvent{
		EventType:         webhook.EventCaptureSuccess,
		ProviderReference: "psp-1",
		Token:             "tok-1",
		Amount:            "30.00",
	}

	resp, err := ev.ToGatewayResponse(p)
	require.NoError(t, err)
	assert.Equal(t, "30", resp.Amount.AmountString())
	assert.Equal(t, "USD", resp.Amount.Currency)
	assert.Equal(t, "tok-1", resp.TransactionID)
}

func TestToGatewayResponse_UnknownEventType(t *testing.T) {
	p := testutil.NewTestPayment("adyen", "80.00", "USD")
	ev := &webhook.IncomingEvent{EventType: "settled", ProviderReference: "psp-1"}

	_, err := ev.ToGatewayResponse(p)
	assert.Error(t, err)
}

func TestToGatewayResponse_BadAmount(t *testing.T) {
	p := testutil.NewTestPayment("adyen", "80.00", "USD")
	ev := &webhook.IncomingEvent{
		EventType:         webhook.EventCaptureSuccess,
		ProviderReference: "psp-1",
		Amount:            "thirty",
	}

	_, err := ev.ToGatewayResponse(p)
	assert.Error(t, err)
}
