package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("app-secret")

func testInfo(amount string) gateway.PaymentInformation {
	return gateway.PaymentInformation{
		PaymentID:     uuid.New(),
		Token:         "tok-1",
		Amount:        money.MustNew(amount, "USD"),
		CustomerEmail: "a@example.com",
		Data:          map[string]any{"return_url": "https://shop.example/return"},
	}
}

func TestPost_SignsBody(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"kind":"auth","is_success":true,"transaction_id":"t-1","amount":"80","currency":"USD"}`))
	}))
	defer srv.Close()

	g := New("app:1", srv.URL, testSecret, time.Second)
	resp, err := g.Authorize(context.Background(), testInfo("80.00"))
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess)
	assert.Equal(t, payment.KindAuth, resp.Kind)

	assert.Equal(t, Sign(testSecret, gotBody), gotSignature)

	var env Envelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, EventAuthorize, env.EventType)
	assert.Equal(t, "tok-1", env.Payload["token"])
	assert.Equal(t, "80", env.Payload["amount"])
	assert.Equal(t, "USD", env.Payload["currency"])
}

func TestPost_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"kind":"capture","is_success":true,"transaction_id":"t-2","amount":"80","currency":"USD"}`))
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, testSecret, time.Second)
	body, err := tr.post(context.Background(), EventCapture, map[string]any{"amount": "80"})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"is_success":true`)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unknown payment"}`))
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, testSecret, time.Second)
	_, err := tr.post(context.Background(), EventCapture, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.status)
}

func TestPost_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTransport(srv.URL, testSecret, time.Second)
	_, err := tr.post(ctx, EventCapture, map[string]any{})
	assert.Error(t, err)
}

func TestToResponse_FallbackKindAndAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_success":true,"transaction_id":"t-3"}`))
	}))
	defer srv.Close()

	g := New("app:1", srv.URL, testSecret, time.Second)
	info := testInfo("80.00")
	resp, err := g.Refund(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, payment.KindRefund, resp.Kind)
	assert.True(t, resp.Amount.Equal(info.Amount))
}

func TestToResponse_RawNeverCarriesSecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"capture","is_success":true,"transaction_id":"t-4","amount":"80","currency":"USD","secret_leak":"oops"}`))
	}))
	defer srv.Close()

	g := New("app:1", srv.URL, testSecret, time.Second)
	resp, err := g.Capture(context.Background(), testInfo("80.00"))
	require.NoError(t, err)
	assert.NotContains(t, resp.RawResponse, "secret_leak")
}

func TestGetClientToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"client-tok-1"}`))
	}))
	defer srv.Close()

	g := New("app:1", srv.URL, testSecret, time.Second)
	token, err := g.GetClientToken(context.Background(), gateway.TokenConfig{CustomerID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "client-tok-1", token)
}
