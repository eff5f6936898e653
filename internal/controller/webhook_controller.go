package controller

import (
	"io"
	"net/http"

	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookController terminates provider callbacks: signed notification
// webhooks and shopper redirect returns.
type WebhookController struct {
	intake       *webhook.Intake
	maxBodyBytes int64
	logger       zerolog.Logger
}

func NewWebhookController(intake *webhook.Intake, maxBodyBytes int64, logger zerolog.Logger) *WebhookController {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &WebhookController{intake: intake, maxBodyBytes: maxBodyBytes, logger: logger}
}

// Receive handles POST /payments/webhook/{gateway}. The webhook is
// authenticated synchronously and acknowledged with 200; processing happens
// on the worker.
func (h *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "gateway")

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "cannot read body", Code: "bad_request"})
		return
	}
	if int64(len(body)) > h.maxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "body too large", Code: "body_too_large"})
		return
	}

	if err := h.intake.Authenticate(gatewayID, r.Header.Get(SignatureHeader), body); err != nil {
		h.logger.Warn().Str("gateway", gatewayID).Err(err).Msg("webhook rejected")
		writeError(w, err)
		return
	}

	if err := h.intake.Accept(r.Context(), gatewayID, body); err != nil {
		writeError(w, err)
		return
	}

	// Providers key their retry logic off the status code; acknowledge
	// with a plain 200 even though processing is asynchronous.
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// RedirectReturn handles GET /payments/return/{gateway}/{id}. The shopper
// lands here after a 3DS or hosted-page flow; the outcome is confirmed with
// the provider and the shopper is 302'd back to the storefront.
func (h *WebhookController) RedirectReturn(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "gateway")
	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	params := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	location, err := h.intake.HandleRedirect(r.Context(), gatewayID, paymentID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}
