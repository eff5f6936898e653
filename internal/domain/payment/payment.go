package payment

import (
	"time"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/google/uuid"
)

// ChargeStatus represents the payment position in the charge state machine.
type ChargeStatus string

const (
	StatusNotCharged        ChargeStatus = "not_charged"
	StatusPending           ChargeStatus = "pending"
	StatusPartiallyCharged  ChargeStatus = "partially_charged"
	StatusFullyCharged      ChargeStatus = "fully_charged"
	StatusPartiallyRefunded ChargeStatus = "partially_refunded"
	StatusFullyRefunded     ChargeStatus = "fully_refunded"
	StatusCancelled         ChargeStatus = "cancelled"
)

// Address is the billing snapshot frozen at payment creation.
type Address struct {
	FirstName  string
	LastName   string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// IsZero reports whether no address fields are set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MethodInfo carries customer payment-method metadata. Never PAN or CVV.
type MethodInfo struct {
	Brand      string
	LastDigits string
	ExpMonth   int
	ExpYear    int
	Type       string
}

// Payment is the aggregate root coordinating money movement for a single
// checkout or order through one gateway. It exclusively owns its
// transaction log.
type Payment struct {
	ID             uuid.UUID
	CheckoutID     *uuid.UUID
	OrderID        *uuid.UUID
	Gateway        string
	IsActive       bool
	ToConfirm      bool
	Total          money.Money
	CapturedAmount money.Money
	ChargeStatus   ChargeStatus
	BillingEmail   string
	Billing        Address
	Method         MethodInfo
	CustomerID     string
	PSPReference   string
	ExtraData      map[string]any
	ReturnURL      string
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// NewPayment creates a payment for a checkout or an order (exactly one must
// be set) and snapshots the billing address. The captured amount starts at
// zero in the payment's currency.
func NewPayment(
	gateway string,
	total money.Money,
	email string,
	checkoutID, orderID *uuid.UUID,
	billing Address,
	returnURL string,
	extraData map[string]any,
) (*Payment, error) {
	if gateway == "" {
		return nil, domainErrors.NewValidationError("gateway", "cannot be empty")
	}
	if !total.IsPositive() {
		return nil, domainErrors.NewPaymentError(domainErrors.CodeAmountInvalid, "total must be positive")
	}
	if (checkoutID == nil) == (orderID == nil) {
		return nil, domainErrors.NewValidationError("parent", "exactly one of checkout_id or order_id must be set")
	}
	if billing.IsZero() {
		return nil, domainErrors.NewPaymentError(domainErrors.CodeBillingAddressNotSet, "billing address is not set")
	}
	if extraData == nil {
		extraData = make(map[string]any)
	}

	now := time.Now()
	return &Payment{
		ID:             uuid.New(),
		CheckoutID:     checkoutID,
		OrderID:        orderID,
		Gateway:        gateway,
		IsActive:       true,
		Total:          total.Quantize(),
		CapturedAmount: money.Zero(total.Currency),
		ChargeStatus:   StatusNotCharged,
		BillingEmail:   email,
		Billing:        billing,
		ExtraData:      extraData,
		ReturnURL:      returnURL,
		CreatedAt:      now,
		ModifiedAt:     now,
	}, nil
}

// Currency returns the payment currency.
func (p *Payment) Currency() string {
	return p.Total.Currency
}

// --- Predicates ---

// CanAuthorize reports whether a fresh authorization is allowed.
func (p *Payment) CanAuthorize() bool {
	return p.IsActive && p.ChargeStatus == StatusNotCharged
}

// CanCapture reports whether further funds may be captured. Re-capture
// after any refund is not allowed.
func (p *Payment) CanCapture() bool {
	if !p.IsActive {
		return false
	}
	return p.ChargeStatus == StatusNotCharged || p.ChargeStatus == StatusPartiallyCharged
}

// CanVoid reports whether the pending authorization can be cancelled.
func (p *Payment) CanVoid() bool {
	return p.IsActive && p.ChargeStatus == StatusNotCharged
}

// CanRefund reports whether captured funds can be returned.
func (p *Payment) CanRefund() bool {
	switch p.ChargeStatus {
	case StatusPartiallyCharged, StatusFullyCharged, StatusPartiallyRefunded:
		return p.CapturedAmount.IsPositive()
	}
	return false
}

// CanConfirm reports whether the payment awaits a confirm step.
func (p *Payment) CanConfirm() bool {
	return p.IsActive && p.ToConfirm
}

// NotCharged reports whether no funds were taken yet.
func (p *Payment) NotCharged() bool {
	return p.ChargeStatus == StatusNotCharged
}

// RemainingCapturable returns total minus captured.
func (p *Payment) RemainingCapturable() money.Money {
	remaining, _ := p.Total.Sub(p.CapturedAmount)
	return remaining
}

// RemainingRefundable returns the captured amount still held.
func (p *Payment) RemainingRefundable() money.Money {
	return p.CapturedAmount
}

// --- State transitions ---
// These are the only mutators of captured amount and charge status. The
// orchestrator applies them under the payment row lock after a successful
// transaction commits.

// ApplyCapture adds a captured amount and rederives the charge status.
func (p *Payment) ApplyCapture(amount money.Money) error {
	captured, err := p.CapturedAmount.Add(amount)
	if err != nil {
		return err
	}
	p.CapturedAmount = captured
	covered, err := p.CapturedAmount.Compare(p.Total)
	if err != nil {
		return err
	}
	if covered >= 0 {
		p.ChargeStatus = StatusFullyCharged
	} else {
		p.ChargeStatus = StatusPartiallyCharged
	}
	p.IsActive = true
	p.touch()
	return nil
}

// ApplyRefund subtracts a refunded amount. Driving captured to zero lands on
// FULLY_REFUNDED and deactivates the payment.
func (p *Payment) ApplyRefund(amount money.Money) error {
	captured, err := p.CapturedAmount.Sub(amount)
	if err != nil {
		return err
	}
	p.CapturedAmount = captured
	if !p.CapturedAmount.IsPositive() {
		p.CapturedAmount = money.Zero(p.Currency())
		p.ChargeStatus = StatusFullyRefunded
		p.IsActive = false
	} else {
		p.ChargeStatus = StatusPartiallyRefunded
	}
	p.touch()
	return nil
}

// ApplyCaptureFailed backs out a capture the provider later rejected.
func (p *Payment) ApplyCaptureFailed(amount money.Money) error {
	if !p.CapturedAmount.IsPositive() {
		return nil
	}
	captured, err := p.CapturedAmount.Sub(amount)
	if err != nil {
		return err
	}
	if captured.IsNegative() {
		captured = money.Zero(p.Currency())
	}
	p.CapturedAmount = captured
	if p.CapturedAmount.IsZero() {
		p.ChargeStatus = StatusNotCharged
	} else {
		p.ChargeStatus = StatusPartiallyCharged
	}
	p.touch()
	return nil
}

// ApplyVoid cancels the pending authorization.
func (p *Payment) ApplyVoid() {
	p.IsActive = false
	p.touch()
}

// MarkPending records that the provider reported the charge as in flight.
func (p *Payment) MarkPending() {
	p.ChargeStatus = StatusPending
	p.touch()
}

// MarkCancelled moves the payment to its terminal cancelled state.
func (p *Payment) MarkCancelled() {
	p.ChargeStatus = StatusCancelled
	p.IsActive = false
	p.touch()
}

// RequireConfirmation flags the payment as awaiting a client-side step.
func (p *Payment) RequireConfirmation(actionData map[string]any) {
	p.ToConfirm = true
	if len(actionData) > 0 {
		p.ExtraData["action_required_data"] = actionData
	}
	p.touch()
}

// ClearConfirmation drops the pending confirmation flag.
func (p *Payment) ClearConfirmation() {
	p.ToConfirm = false
	p.touch()
}

// Deactivate disables the payment without a provider call, e.g. when the
// owning checkout is abandoned.
func (p *Payment) Deactivate() {
	p.IsActive = false
	p.touch()
}

// AttachOrder links the payment to the order created at checkout completion.
func (p *Payment) AttachOrder(orderID uuid.UUID) {
	p.OrderID = &orderID
	p.touch()
}

// SetMethodInfo records payment-method metadata returned by the provider.
func (p *Payment) SetMethodInfo(info MethodInfo) {
	p.Method = info
	p.touch()
}

// SetPSPReference records the provider's stable identifier once known.
func (p *Payment) SetPSPReference(ref string) {
	if ref != "" {
		p.PSPReference = ref
	}
	p.touch()
}

// IsTerminal reports whether no further mutating operation is permitted.
func (p *Payment) IsTerminal() bool {
	return p.ChargeStatus == StatusFullyRefunded || p.ChargeStatus == StatusCancelled
}

func (p *Payment) touch() {
	p.ModifiedAt = time.Now()
}
