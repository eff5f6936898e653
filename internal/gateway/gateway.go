// Package gateway defines the contract every payment provider adapter
// implements and the value types that cross it.
package gateway

import (
	"context"
	"encoding/json"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
)

// PaymentInformation is the uniform request every adapter operation
// receives. Token carries the provider-side identifier relevant to the
// operation: the client token for authorize/process, the authorization
// token for capture, void and refund.
type PaymentInformation struct {
	Token             string
	Amount            money.Money
	Billing           payment.Address
	Shipping          payment.Address
	OrderID           *uuid.UUID
	PaymentID         uuid.UUID
	GraphQLPaymentID  string
	CustomerIPAddress string
	CustomerID        string
	CustomerEmail     string
	ReuseSource       bool
	Data              map[string]any
}

// Response is what every adapter operation returns. The orchestrator
// validates it against the contract before any state changes.
type Response struct {
	Kind                        payment.TransactionKind
	IsSuccess                   bool
	ActionRequired              bool
	ActionRequiredData          map[string]any
	TransactionID               string
	Amount                      money.Money
	Error                       string
	RawResponse                 map[string]any
	CustomerID                  string
	PSPReference                string
	PaymentMethodInfo           *payment.MethodInfo
	TransactionAlreadyProcessed bool
}

// TokenConfig parametrizes client-token generation.
type TokenConfig struct {
	CustomerID string
	ChannelID  string
}

// CustomerSource is a stored payment method belonging to a customer.
type CustomerSource struct {
	ID         string
	Gateway    string
	CreditCard *payment.MethodInfo
}

// Gateway is the capability set every provider adapter is polymorphic over.
type Gateway interface {
	// ID returns the registered gateway identifier.
	ID() string

	// Authorize reserves funds without moving them.
	Authorize(ctx context.Context, info PaymentInformation) (*Response, error)

	// Capture transfers previously authorized funds; may be partial.
	Capture(ctx context.Context, info PaymentInformation) (*Response, error)

	// Refund returns captured funds; may be partial.
	Refund(ctx context.Context, info PaymentInformation) (*Response, error)

	// Void cancels a pending authorization.
	Void(ctx context.Context, info PaymentInformation) (*Response, error)

	// ProcessPayment runs the gateway's default one-shot flow, usually
	// AUTH plus CAPTURE.
	ProcessPayment(ctx context.Context, info PaymentInformation) (*Response, error)

	// ConfirmPayment finalizes a to-confirm (3-DS, redirect) flow.
	ConfirmPayment(ctx context.Context, info PaymentInformation) (*Response, error)

	// GetClientToken produces a short-lived token the storefront uses to
	// collect payment data client-side.
	GetClientToken(ctx context.Context, cfg TokenConfig) (string, error)
}

// SourceLister is the optional customer-vault capability.
type SourceLister interface {
	ListPaymentSources(ctx context.Context, customerID string) ([]CustomerSource, error)
}

// Validate enforces the response contract: a known kind, a JSON-serializable
// raw response and the payment's currency. A violation means the adapter is
// broken; no transaction may be persisted from such a response.
func Validate(gatewayID string, resp *Response, currency string) error {
	if resp == nil {
		return domainErrors.NewGatewayError(gatewayID, "nil response")
	}
	if !payment.ValidKind(resp.Kind) {
		return domainErrors.NewGatewayError(gatewayID, "unknown transaction kind "+string(resp.Kind))
	}
	if resp.Amount.Currency != currency {
		return domainErrors.NewGatewayError(gatewayID, "response currency "+resp.Amount.Currency+" does not match payment currency "+currency)
	}
	if resp.RawResponse != nil {
		if _, err := json.Marshal(resp.RawResponse); err != nil {
			return domainErrors.NewGatewayError(gatewayID, "raw response is not JSON-serializable")
		}
	}
	return nil
}
