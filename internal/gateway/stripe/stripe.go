// Package stripe adapts the Stripe PaymentIntents API. Intents carry the
// whole lifecycle: an authorization is an intent with manual capture, 3-D
// Secure surfaces as requires_action with a client secret the storefront
// finishes, and modifications address the intent by its id.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// Intent statuses; see Stripe's PaymentIntents reference.
const (
	statusRequiresCapture       = "requires_capture"
	statusRequiresAction        = "requires_action"
	statusRequiresConfirmation  = "requires_confirmation"
	statusRequiresPaymentMethod = "requires_payment_method"
	statusProcessing            = "processing"
	statusSucceeded             = "succeeded"
	statusCanceled              = "canceled"
)

type Gateway struct {
	id             string
	client         *http.Client
	baseURL        string
	secretKey      string
	publishableKey string
}

func New(id, baseURL, secretKey, publishableKey string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		id:             id,
		client:         &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		secretKey:      secretKey,
		publishableKey: publishableKey,
	}
}

func (g *Gateway) ID() string { return g.id }

type apiObject struct {
	ID           string         `json:"id"`
	Object       string         `json:"object"`
	Status       string         `json:"status"`
	ClientSecret string         `json:"client_secret"`
	NextAction   map[string]any `json:"next_action"`
	LastError    *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"last_payment_error"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// post sends a form-encoded request, the only body format the Stripe API
// accepts. A nil form means an empty body.
func (g *Gateway) post(ctx context.Context, path string, form url.Values) (*apiObject, map[string]any, error) {
	body := ""
	if form != nil {
		body = form.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("stripe: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}

	var parsed apiObject
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, nil, fmt.Errorf("stripe: decode %s response: %w", path, err)
	}
	// Card declines come back 402 with an error object; that is a provider
	// refusal, not a transport failure, and must produce a failure
	// transaction.
	if resp.StatusCode >= 400 && parsed.Error == nil {
		return nil, nil, fmt.Errorf("stripe: %s returned %d: %s", path, resp.StatusCode, respBody)
	}

	var audit map[string]any
	_ = json.Unmarshal(respBody, &audit)
	// The client secret authorizes storefront-side confirmation; keep it
	// out of the persisted audit blob.
	delete(audit, "client_secret")
	return &parsed, audit, nil
}

// minorUnits renders a Money in Stripe's integer smallest-unit format.
func minorUnits(m money.Money) string {
	q := m.Quantize()
	return strconv.FormatInt(q.Amount.Shift(money.MinorUnitExponent(q.Currency)).IntPart(), 10)
}

func (g *Gateway) toResponse(api *apiObject, audit map[string]any, kind payment.TransactionKind, info gateway.PaymentInformation) *gateway.Response {
	resp := &gateway.Response{
		Kind:          kind,
		TransactionID: api.ID,
		PSPReference:  api.ID,
		Amount:        info.Amount,
		RawResponse:   audit,
	}

	if api.Error != nil {
		resp.Error = api.Error.Message
		if resp.Error == "" {
			resp.Error = "stripe: " + api.Error.Code
		}
		return resp
	}

	switch api.Status {
	case statusSucceeded, statusRequiresCapture:
		resp.IsSuccess = true
	case statusProcessing:
		resp.IsSuccess = true
		resp.Kind = payment.KindPending
	case statusRequiresAction, statusRequiresConfirmation:
		resp.IsSuccess = true
		resp.Kind = payment.KindActionToConfirm
		resp.ActionRequired = true
		resp.ActionRequiredData = map[string]any{
			"client_secret": api.ClientSecret,
			"next_action":   api.NextAction,
		}
	case statusCanceled:
		resp.IsSuccess = true
	default:
		resp.Error = "stripe: intent status " + api.Status
		if api.LastError != nil && api.LastError.Message != "" {
			resp.Error = api.LastError.Message
		}
	}
	return resp
}

func (g *Gateway) createIntent(ctx context.Context, kind payment.TransactionKind, info gateway.PaymentInformation, captureMethod string) (*gateway.Response, error) {
	form := url.Values{}
	form.Set("amount", minorUnits(info.Amount))
	form.Set("currency", strings.ToLower(info.Amount.Currency))
	form.Set("payment_method", info.Token)
	form.Set("confirm", "true")
	form.Set("capture_method", captureMethod)
	form.Set("metadata[payment_id]", info.PaymentID.String())
	if returnURL, ok := info.Data["return_url"].(string); ok && returnURL != "" {
		form.Set("return_url", returnURL)
	}
	if info.CustomerEmail != "" {
		form.Set("receipt_email", info.CustomerEmail)
	}
	if info.ReuseSource && info.CustomerID != "" {
		form.Set("customer", info.CustomerID)
		form.Set("setup_future_usage", "off_session")
	}

	api, audit, err := g.post(ctx, "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, kind, info), nil
}

func (g *Gateway) Authorize(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.createIntent(ctx, payment.KindAuth, info, "manual")
}

func (g *Gateway) ProcessPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.createIntent(ctx, payment.KindCharge, info, "automatic")
}

func (g *Gateway) Capture(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	form := url.Values{}
	form.Set("amount_to_capture", minorUnits(info.Amount))
	api, audit, err := g.post(ctx, "/v1/payment_intents/"+info.Token+"/capture", form)
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, payment.KindCapture, info), nil
}

func (g *Gateway) Refund(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	form := url.Values{}
	form.Set("payment_intent", info.Token)
	form.Set("amount", minorUnits(info.Amount))
	api, audit, err := g.post(ctx, "/v1/refunds", form)
	if err != nil {
		return nil, err
	}
	resp := g.toResponse(api, audit, payment.KindRefund, info)
	// Bank-debit refunds settle asynchronously; the final state arrives on
	// a refund webhook.
	if api.Status == "pending" {
		resp.IsSuccess = true
		resp.Kind = payment.KindRefundOngoing
		resp.Error = ""
	}
	if resp.TransactionID == "" {
		resp.TransactionID = info.Token
	}
	return resp, nil
}

func (g *Gateway) Void(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	api, audit, err := g.post(ctx, "/v1/payment_intents/"+info.Token+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, payment.KindVoid, info), nil
}

// ConfirmPayment re-confirms the intent after the shopper completed the
// challenge. Manual-capture intents land on requires_capture, which is the
// confirmed authorization; automatic ones go straight to succeeded.
func (g *Gateway) ConfirmPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	api, audit, err := g.post(ctx, "/v1/payment_intents/"+info.Token+"/confirm", nil)
	if err != nil {
		return nil, err
	}
	resp := g.toResponse(api, audit, payment.KindConfirm, info)
	if api.Status == statusSucceeded {
		resp.Kind = payment.KindCapture
	}
	return resp, nil
}

// GetClientToken surfaces the publishable key; Stripe Elements needs it
// before any intent exists.
func (g *Gateway) GetClientToken(ctx context.Context, cfg gateway.TokenConfig) (string, error) {
	return g.publishableKey, nil
}

type paymentMethodList struct {
	Data []struct {
		ID   string `json:"id"`
		Card struct {
			Brand    string `json:"brand"`
			Last4    string `json:"last4"`
			ExpMonth int    `json:"exp_month"`
			ExpYear  int    `json:"exp_year"`
		} `json:"card"`
	} `json:"data"`
}

// ListPaymentSources implements the optional vault capability over the
// customer's stored card payment methods.
func (g *Gateway) ListPaymentSources(ctx context.Context, customerID string) ([]gateway.CustomerSource, error) {
	if customerID == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("customer", customerID)
	q.Set("type", "card")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payment_methods?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: list payment methods: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe: list payment methods returned %d: %s", resp.StatusCode, respBody)
	}

	var list paymentMethodList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("stripe: decode payment methods: %w", err)
	}

	sources := make([]gateway.CustomerSource, 0, len(list.Data))
	for _, pm := range list.Data {
		sources = append(sources, gateway.CustomerSource{
			ID:      pm.ID,
			Gateway: g.id,
			CreditCard: &payment.MethodInfo{
				Brand:      pm.Card.Brand,
				LastDigits: pm.Card.Last4,
				ExpMonth:   pm.Card.ExpMonth,
				ExpYear:    pm.Card.ExpYear,
				Type:       "card",
			},
		})
	}
	return sources, nil
}
