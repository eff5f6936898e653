// Package adyen adapts the Adyen Checkout API. Payments frequently come
// back RedirectShopper (3-D Secure, iDEAL and friends); those responses are
// mapped to action-required so the storefront can run the redirect and the
// webhook intake can finish the flow through ConfirmPayment.
package adyen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
)

// Result codes of interest; see Adyen's Checkout API reference.
const (
	resultAuthorised      = "Authorised"
	resultRefused         = "Refused"
	resultPending         = "Pending"
	resultReceived        = "[capture-received]"
	resultRedirectShopper = "RedirectShopper"
	resultIdentifyShopper = "IdentifyShopper"
	resultChallengeShoppr = "ChallengeShopper"
	resultError           = "Error"
)

type Gateway struct {
	id              string
	client          *http.Client
	baseURL         string
	apiKey          string
	merchantAccount string
}

func New(id, baseURL, apiKey, merchantAccount string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		id:              id,
		client:          &http.Client{Timeout: timeout},
		baseURL:         baseURL,
		apiKey:          apiKey,
		merchantAccount: merchantAccount,
	}
}

func (g *Gateway) ID() string { return g.id }

type apiResponse struct {
	ResultCode    string         `json:"resultCode"`
	PSPReference  string         `json:"pspReference"`
	RefusalReason string         `json:"refusalReason"`
	Action        map[string]any `json:"action"`
	Amount        *struct {
		Value    int64  `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	PaymentMethod *struct {
		Brand string `json:"brand"`
		Type  string `json:"type"`
	} `json:"paymentMethod"`
	AdditionalData map[string]any `json:"additionalData"`
	Status         string         `json:"status"`
}

func (g *Gateway) post(ctx context.Context, path string, body map[string]any) (*apiResponse, map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("adyen: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("adyen: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("adyen: %s returned %d: %s", path, resp.StatusCode, respBody)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, nil, fmt.Errorf("adyen: decode %s response: %w", path, err)
	}
	var audit map[string]any
	_ = json.Unmarshal(respBody, &audit)
	// The API key travels in a header and additionalData may echo
	// credentials for some flows; drop it from the audit blob.
	delete(audit, "additionalData")
	return &parsed, audit, nil
}

// minorUnits converts a Money into Adyen's integer minor-unit format.
func minorUnits(m money.Money) map[string]any {
	q := m.Quantize()
	return map[string]any{
		"value":    q.Amount.Shift(money.MinorUnitExponent(q.Currency)).IntPart(),
		"currency": q.Currency,
	}
}

func (g *Gateway) toResponse(api *apiResponse, audit map[string]any, kind payment.TransactionKind, info gateway.PaymentInformation) *gateway.Response {
	resp := &gateway.Response{
		Kind:          kind,
		TransactionID: api.PSPReference,
		PSPReference:  api.PSPReference,
		Amount:        info.Amount,
		RawResponse:   audit,
	}

	switch api.ResultCode {
	case resultAuthorised, resultReceived:
		resp.IsSuccess = true
	case resultPending:
		resp.IsSuccess = true
		resp.Kind = payment.KindPending
	case resultRedirectShopper, resultIdentifyShopper, resultChallengeShoppr:
		resp.IsSuccess = true
		resp.Kind = payment.KindActionToConfirm
		resp.ActionRequired = true
		resp.ActionRequiredData = api.Action
	case resultRefused, resultError:
		resp.Error = api.RefusalReason
		if resp.Error == "" {
			resp.Error = "adyen: " + api.ResultCode
		}
	default:
		// Modification endpoints answer with status "received" and no
		// result code.
		resp.IsSuccess = api.Status == "received"
		if !resp.IsSuccess {
			resp.Error = "adyen: unexpected result " + api.ResultCode
		}
	}

	if api.PaymentMethod != nil {
		resp.PaymentMethodInfo = &payment.MethodInfo{
			Brand: api.PaymentMethod.Brand,
			Type:  api.PaymentMethod.Type,
		}
	}
	return resp
}

func (g *Gateway) payments(ctx context.Context, kind payment.TransactionKind, info gateway.PaymentInformation, autoCapture bool) (*gateway.Response, error) {
	body := map[string]any{
		"amount":          minorUnits(info.Amount),
		"reference":       info.PaymentID.String(),
		"merchantAccount": g.merchantAccount,
		"returnUrl":       info.Data["return_url"],
		"paymentMethod":   map[string]any{"type": "scheme", "encryptedCardData": info.Token},
		"shopperEmail":    info.CustomerEmail,
		"shopperIP":       info.CustomerIPAddress,
	}
	if !autoCapture {
		body["additionalData"] = map[string]any{"manualCapture": "true"}
	}
	api, audit, err := g.post(ctx, "/payments", body)
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, kind, info), nil
}

func (g *Gateway) Authorize(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.payments(ctx, payment.KindAuth, info, false)
}

func (g *Gateway) ProcessPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return g.payments(ctx, payment.KindCharge, info, true)
}

func (g *Gateway) Capture(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	api, audit, err := g.post(ctx, "/payments/"+info.Token+"/captures", map[string]any{
		"amount":          minorUnits(info.Amount),
		"merchantAccount": g.merchantAccount,
		"reference":       info.PaymentID.String(),
	})
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, payment.KindCapture, info), nil
}

func (g *Gateway) Refund(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	api, audit, err := g.post(ctx, "/payments/"+info.Token+"/refunds", map[string]any{
		"amount":          minorUnits(info.Amount),
		"merchantAccount": g.merchantAccount,
		"reference":       info.PaymentID.String(),
	})
	if err != nil {
		return nil, err
	}
	// Adyen refunds are asynchronous: the modification is accepted here and
	// settled by a later REFUND webhook.
	resp := g.toResponse(api, audit, payment.KindRefundOngoing, info)
	return resp, nil
}

func (g *Gateway) Void(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	api, audit, err := g.post(ctx, "/payments/"+info.Token+"/cancels", map[string]any{
		"merchantAccount": g.merchantAccount,
		"reference":       info.PaymentID.String(),
	})
	if err != nil {
		return nil, err
	}
	return g.toResponse(api, audit, payment.KindVoid, info), nil
}

// ConfirmPayment finalizes a redirect flow by submitting the redirect
// result details.
func (g *Gateway) ConfirmPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	details, _ := info.Data["details"].(map[string]any)
	body := map[string]any{"details": details}
	if paymentData, ok := info.Data["payment_data"].(string); ok && paymentData != "" {
		body["paymentData"] = paymentData
	}
	api, audit, err := g.post(ctx, "/payments/details", body)
	if err != nil {
		return nil, err
	}
	resp := g.toResponse(api, audit, payment.KindAuth, info)
	if resp.Kind == payment.KindAuth && resp.IsSuccess && !resp.ActionRequired {
		resp.Kind = payment.KindConfirm
	}
	return resp, nil
}

// GetClientToken returns the origin key material the drop-in needs; Adyen
// client sessions are created storefront-side, so this surfaces the
// merchant reference only.
func (g *Gateway) GetClientToken(ctx context.Context, cfg gateway.TokenConfig) (string, error) {
	return g.merchantAccount, nil
}
