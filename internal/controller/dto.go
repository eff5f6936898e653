package controller

import (
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string decimal amounts, string IDs,
// validation tags). Controllers convert these to domain types before calling
// the orchestrator.

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	Gateway    string         `json:"gateway" validate:"required"`
	Amount     string         `json:"amount" validate:"required"`
	Currency   string         `json:"currency" validate:"required,len=3"`
	Email      string         `json:"email" validate:"omitempty,email"`
	CheckoutID *string        `json:"checkout_id,omitempty"`
	OrderID    *string        `json:"order_id,omitempty"`
	Billing    BillingAddress `json:"billing_address"`
	ReturnURL  string         `json:"return_url" validate:"omitempty,url"`
	ExtraData  map[string]any `json:"extra_data,omitempty"`
}

// BillingAddress mirrors the billing snapshot stored on the payment.
type BillingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" validate:"omitempty,len=2"`
}

// TokenRequest carries a provider token into authorize, process and charge.
type TokenRequest struct {
	Token       string  `json:"token" validate:"required"`
	Amount      *string `json:"amount,omitempty"`
	StoreSource bool    `json:"store_source,omitempty"`
}

// AmountRequest is the optional partial amount for capture and refund.
type AmountRequest struct {
	Amount *string `json:"amount,omitempty"`
}

// AttachOrderRequest links a checkout payment to its completed order.
type AttachOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// ClientTokenRequest scopes a client token to an optional customer and channel.
type ClientTokenRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	ChannelID  string `json:"channel_id,omitempty"`
}

// --- Response DTOs ---

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID             string      `json:"id"`
	CheckoutID     *string     `json:"checkout_id,omitempty"`
	OrderID        *string     `json:"order_id,omitempty"`
	Gateway        string      `json:"gateway"`
	IsActive       bool        `json:"is_active"`
	ToConfirm      bool        `json:"to_confirm"`
	Total          string      `json:"total"`
	CapturedAmount string      `json:"captured_amount"`
	Currency       string      `json:"currency"`
	ChargeStatus   string      `json:"charge_status"`
	BillingEmail   string      `json:"billing_email,omitempty"`
	Method         *MethodInfo `json:"payment_method,omitempty"`
	PSPReference   string      `json:"psp_reference,omitempty"`
	ReturnURL      string      `json:"return_url,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	ModifiedAt     time.Time   `json:"modified_at"`
}

// MethodInfo is the stored payment-method metadata. Never PAN or CVV.
type MethodInfo struct {
	Brand      string `json:"brand,omitempty"`
	LastDigits string `json:"last_digits,omitempty"`
	ExpMonth   int    `json:"exp_month,omitempty"`
	ExpYear    int    `json:"exp_year,omitempty"`
	Type       string `json:"type,omitempty"`
}

// TransactionResponse represents one gateway interaction in API responses.
type TransactionResponse struct {
	ID                 string         `json:"id"`
	PaymentID          string         `json:"payment_id"`
	Kind               string         `json:"kind"`
	IsSuccess          bool           `json:"is_success"`
	ActionRequired     bool           `json:"action_required"`
	ActionRequiredData map[string]any `json:"action_required_data,omitempty"`
	Amount             string         `json:"amount"`
	Currency           string         `json:"currency"`
	Error              string         `json:"error,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// ClientTokenResponse wraps a gateway client token.
type ClientTokenResponse struct {
	Token string `json:"token"`
}

// SourceResponse is one stored payment source.
type SourceResponse struct {
	ID         string      `json:"id"`
	Gateway    string      `json:"gateway"`
	CreditCard *MethodInfo `json:"credit_card,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:             p.ID.String(),
		Gateway:        p.Gateway,
		IsActive:       p.IsActive,
		ToConfirm:      p.ToConfirm,
		Total:          p.Total.AmountString(),
		CapturedAmount: p.CapturedAmount.AmountString(),
		Currency:       p.Total.Currency,
		ChargeStatus:   string(p.ChargeStatus),
		BillingEmail:   p.BillingEmail,
		PSPReference:   p.PSPReference,
		ReturnURL:      p.ReturnURL,
		CreatedAt:      p.CreatedAt,
		ModifiedAt:     p.ModifiedAt,
	}
	if p.CheckoutID != nil {
		cid := p.CheckoutID.String()
		resp.CheckoutID = &cid
	}
	if p.OrderID != nil {
		oid := p.OrderID.String()
		resp.OrderID = &oid
	}
	if p.Method != (payment.MethodInfo{}) {
		resp.Method = &MethodInfo{
			Brand:      p.Method.Brand,
			LastDigits: p.Method.LastDigits,
			ExpMonth:   p.Method.ExpMonth,
			ExpYear:    p.Method.ExpYear,
			Type:       p.Method.Type,
		}
	}
	return resp
}

// FromTransaction converts a domain transaction to API response.
func FromTransaction(t *payment.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                 t.ID.String(),
		PaymentID:          t.PaymentID.String(),
		Kind:               string(t.Kind),
		IsSuccess:          t.IsSuccess,
		ActionRequired:     t.ActionRequired,
		ActionRequiredData: t.ActionRequiredData,
		Amount:             t.Amount.AmountString(),
		Currency:           t.Amount.Currency,
		Error:              t.Error,
		CreatedAt:          t.CreatedAt,
	}
}

func toBillingAddress(b BillingAddress) payment.Address {
	return payment.Address{
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		Street:     b.Street,
		City:       b.City,
		PostalCode: b.PostalCode,
		Country:    b.Country,
	}
}

// parseAmount builds a Money from an optional decimal string in the given
// currency. A nil input yields nil (operation defaults apply).
func parseAmount(s *string, currency string) (*money.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := money.New(*s, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// parseUUID parses a UUID string, returning nil if invalid.
func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
