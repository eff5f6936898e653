package testutil

import (
	"time"

	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
)

// TestBilling is a complete billing address for fixtures.
func TestBilling() payment.Address {
	return payment.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Market St",
		City:       "Porto",
		PostalCode: "4000-001",
		Country:    "PT",
	}
}

// NewTestPayment builds an active checkout payment in the given amount.
func NewTestPayment(gatewayID, amount, currency string) *payment.Payment {
	checkoutID := uuid.New()
	p, err := payment.NewPayment(
		gatewayID,
		money.MustNew(amount, currency),
		"customer@example.com",
		&checkoutID,
		nil,
		TestBilling(),
		"https://shop.example/return",
		nil,
	)
	if err != nil {
		panic(err)
	}
	return p
}

// NewTestOrderPayment builds an active payment attached to the given order.
func NewTestOrderPayment(gatewayID, amount, currency string, orderID uuid.UUID) *payment.Payment {
	p, err := payment.NewPayment(
		gatewayID,
		money.MustNew(amount, currency),
		"customer@example.com",
		nil,
		&orderID,
		TestBilling(),
		"https://shop.example/return",
		nil,
	)
	if err != nil {
		panic(err)
	}
	return p
}

// NewAuthorizedPayment builds a payment with a successful auth transaction
// already on the log, ready for capture or void.
func NewAuthorizedPayment(repo *MockPaymentRepository, gatewayID, amount, currency string) *payment.Payment {
	p := NewTestPayment(gatewayID, amount, currency)
	seedAuth(repo, p)
	return p
}

// NewAuthorizedOrderPayment is NewAuthorizedPayment attached to an order.
func NewAuthorizedOrderPayment(repo *MockPaymentRepository, gatewayID, amount, currency string, orderID uuid.UUID) *payment.Payment {
	p := NewTestOrderPayment(gatewayID, amount, currency, orderID)
	seedAuth(repo, p)
	return p
}

func seedAuth(repo *MockPaymentRepository, p *payment.Payment) {
	repo.payments[p.ID] = p
	txn := payment.NewTransaction(p.ID, payment.KindAuth, "auth-token-"+p.ID.String()[:8], true, p.Total)
	txn.AlreadyProcessed = true
	repo.txns[p.ID] = append(repo.txns[p.ID], txn)
}

// NewTestOrder builds an unpaid order with the given gross total.
func NewTestOrder(amount, currency string) *order.Order {
	now := time.Now()
	return &order.Order{
		ID:              uuid.New(),
		TotalGross:      money.MustNew(amount, currency),
		TotalAuthorized: money.Zero(currency),
		TotalCaptured:   money.Zero(currency),
		ChargeStatus:    order.StatusNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UUIDPtr returns a pointer to the id.
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// MoneyPtr returns a pointer to a money literal.
func MoneyPtr(amount, currency string) *money.Money {
	m := money.MustNew(amount, currency)
	return &m
}
