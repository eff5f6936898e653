package payment

import (
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/google/uuid"
)

// TransactionKind represents the type of a gateway interaction.
//
// AUTH reserves an amount against the customer's funding source; CAPTURE
// transfers it; CHARGE does both in one step; VOID cancels a pending
// authorization; REFUND returns captured funds. The remaining kinds record
// asynchronous or intermediate provider outcomes.
type TransactionKind string

const (
	KindAuth            TransactionKind = "auth"
	KindCapture         TransactionKind = "capture"
	KindCharge          TransactionKind = "charge"
	KindConfirm         TransactionKind = "confirm"
	KindVoid            TransactionKind = "void"
	KindRefund          TransactionKind = "refund"
	KindRefundOngoing   TransactionKind = "refund_ongoing"
	KindRefundReversed  TransactionKind = "refund_reversed"
	KindPending         TransactionKind = "pending"
	KindCancel          TransactionKind = "cancel"
	KindActionToConfirm TransactionKind = "action_to_confirm"
	KindCaptureFailed   TransactionKind = "capture_failed"
)

var allKinds = map[TransactionKind]struct{}{
	KindAuth: {}, KindCapture: {}, KindCharge: {}, KindConfirm: {},
	KindVoid: {}, KindRefund: {}, KindRefundOngoing: {}, KindRefundReversed: {},
	KindPending: {}, KindCancel: {}, KindActionToConfirm: {}, KindCaptureFailed: {},
}

// ValidKind reports whether k is one of the allowed transaction kinds.
func ValidKind(k TransactionKind) bool {
	_, ok := allKinds[k]
	return ok
}

// Transaction is an immutable record of a single gateway interaction.
// Only AlreadyProcessed may change after insert.
type Transaction struct {
	ID                 uuid.UUID
	PaymentID          uuid.UUID
	Kind               TransactionKind
	Token              string
	IsSuccess          bool
	ActionRequired     bool
	ActionRequiredData map[string]any
	Amount             money.Money
	GatewayResponse    map[string]any
	Error              string
	AlreadyProcessed   bool
	CreatedAt          time.Time
}

// NewTransaction builds a transaction row for a payment.
func NewTransaction(paymentID uuid.UUID, kind TransactionKind, token string, isSuccess bool, amount money.Money) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Kind:      kind,
		Token:     token,
		IsSuccess: isSuccess,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}

// Matches reports whether the two rows describe the same provider event:
// the idempotency tuple (token, kind, amount, success, action_required).
func (t *Transaction) Matches(kind TransactionKind, token string, isSuccess, actionRequired bool, amount money.Money) bool {
	return t.Kind == kind &&
		t.Token == token &&
		t.IsSuccess == isSuccess &&
		t.ActionRequired == actionRequired &&
		t.Amount.Equal(amount)
}
