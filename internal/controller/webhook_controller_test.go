package controller

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	"github.com/cassiomorais/paycore/internal/gateway/dummy"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/cassiomorais/paycore/internal/testutil"
	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type nopEnqueuer struct{}

func (nopEnqueuer) EnqueueWebhook(ctx context.Context, ev *webhook.IncomingEvent) error {
	return nil
}

func newWebhookRouter(secret []byte) *chi.Mux {
	reg := registry.New()
	reg.Register(&registry.Entry{Adapter: dummy.New(), DisplayName: "dummy", Active: true})

	payments := testutil.NewMockPaymentRepository()
	orders := testutil.NewMockOrderRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	logger := zerolog.Nop()

	rollup := orderApp.NewRollup(orders, payments, outboxRepo, logger)
	orchestrator := paymentApp.NewOrchestrator(
		payments, reg, testutil.NewMockTransactionManager(), rollup, outboxRepo, logger,
	)
	intake := webhook.NewIntake(payments, reg, orchestrator, nopEnqueuer{}, map[string][]byte{"dummy": secret}, logger)
	h := NewWebhookController(intake, 1<<20, logger)

	r := chi.NewRouter()
	r.Post("/payments/webhook/{gateway}", h.Receive)
	return r
}

func signBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookReceive_AcknowledgesWith200(t *testing.T) {
	secret := []byte("shared-secret")
	r := newWebhookRouter(secret)

	body := []byte(`{"event_type":"capture_success","psp_reference":"psp-1","amount":"30.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/dummy", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, signBody(secret, body))
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "accepted" {
		t.Errorf("unexpected body: %v", resp)
	}
}

func TestWebhookReceive_BadSignature(t *testing.T) {
	r := newWebhookRouter([]byte("shared-secret"))

	body := []byte(`{"event_type":"capture_success","psp_reference":"psp-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/dummy", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, signBody([]byte("wrong"), body))
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
