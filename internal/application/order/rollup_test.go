package order_test

import (
	"context"
	"testing"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	"github.com/cassiomorais/paycore/internal/domain/money"
	domainOrder "github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/cassiomorais/paycore/internal/domain/outbox"
	domainPayment "github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/testutil"
	"github.com/rs/zerolog"
)

func newRollup() (*orderApp.Rollup, *testutil.MockPaymentRepository, *testutil.MockOrderRepository, *testutil.MockOutboxRepository) {
	payments := testutil.NewMockPaymentRepository()
	orders := testutil.NewMockOrderRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	return orderApp.NewRollup(orders, payments, outboxRepo, zerolog.Nop()), payments, orders, outboxRepo
}

func TestRollup_FullyPaid_EmitsEventOnce(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, outboxRepo := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p := testutil.NewAuthorizedOrderPayment(payments, "dummy", "80.00", "USD", o.ID)
	if err := p.ApplyCapture(money.MustNew("80.00", "USD")); err != nil {
		t.Fatal(err)
	}

	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := orders.GetOrderByID(o.ID)
	if updated.ChargeStatus != domainOrder.StatusFull {
		t.Errorf("expected full, got %s", updated.ChargeStatus)
	}
	if updated.TotalCaptured.AmountString() != "80" {
		t.Errorf("expected captured 80, got %s", updated.TotalCaptured.AmountString())
	}
	if !updated.PaidEventSent {
		t.Error("expected the paid-event latch to be set")
	}

	events := outboxRepo.EntriesOfType(outbox.EventOrderFullyPaid)
	if len(events) != 1 {
		t.Fatalf("expected exactly one fully-paid event, got %d", len(events))
	}
	if events[0].Payload["order_id"] != o.ID.String() {
		t.Errorf("unexpected payload: %v", events[0].Payload)
	}

	// A second recompute over unchanged payments must not emit again.
	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := len(outboxRepo.EntriesOfType(outbox.EventOrderFullyPaid)); got != 1 {
		t.Errorf("expected the event exactly once, got %d", got)
	}
}

func TestRollup_Partial_NoEvent(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, outboxRepo := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p := testutil.NewAuthorizedOrderPayment(payments, "dummy", "80.00", "USD", o.ID)
	if err := p.ApplyCapture(money.MustNew("30.00", "USD")); err != nil {
		t.Fatal(err)
	}

	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := orders.GetOrderByID(o.ID)
	if updated.ChargeStatus != domainOrder.StatusPartial {
		t.Errorf("expected partial, got %s", updated.ChargeStatus)
	}
	if len(outboxRepo.EntriesOfType(outbox.EventOrderFullyPaid)) != 0 {
		t.Error("partial coverage must not emit the fully-paid event")
	}
}

func TestRollup_OutstandingAuthorization(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, _ := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p := testutil.NewAuthorizedOrderPayment(payments, "dummy", "80.00", "USD", o.ID)
	if err := p.ApplyCapture(money.MustNew("30.00", "USD")); err != nil {
		t.Fatal(err)
	}

	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := orders.GetOrderByID(o.ID)
	if updated.TotalAuthorized.AmountString() != "50" {
		t.Errorf("expected authorized 50 outstanding, got %s", updated.TotalAuthorized.AmountString())
	}
}

func TestRollup_VoidedPayment_HoldsNothing(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, _ := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p := testutil.NewAuthorizedOrderPayment(payments, "dummy", "80.00", "USD", o.ID)
	voidTxn := domainPayment.NewTransaction(p.ID, domainPayment.KindVoid, "void-1", true, p.Total)
	payments.AddTransaction(ctx, voidTxn)
	p.ApplyVoid()

	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := orders.GetOrderByID(o.ID)
	if !updated.TotalAuthorized.IsZero() {
		t.Errorf("voided authorization must hold nothing, got %s", updated.TotalAuthorized.AmountString())
	}
	if updated.ChargeStatus != domainOrder.StatusNone {
		t.Errorf("expected none, got %s", updated.ChargeStatus)
	}
}

func TestRollup_MultiplePayments_Summed(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, outboxRepo := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p1 := testutil.NewAuthorizedOrderPayment(payments, "dummy", "50.00", "USD", o.ID)
	if err := p1.ApplyCapture(money.MustNew("50.00", "USD")); err != nil {
		t.Fatal(err)
	}
	p2 := testutil.NewAuthorizedOrderPayment(payments, "dummy", "30.00", "USD", o.ID)
	if err := p2.ApplyCapture(money.MustNew("30.00", "USD")); err != nil {
		t.Fatal(err)
	}

	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := orders.GetOrderByID(o.ID)
	if updated.ChargeStatus != domainOrder.StatusFull {
		t.Errorf("expected full across two payments, got %s", updated.ChargeStatus)
	}
	if len(outboxRepo.EntriesOfType(outbox.EventOrderFullyPaid)) != 1 {
		t.Error("expected one fully-paid event")
	}
}

func TestRollup_LatchSurvivesRefundAndRecharge(t *testing.T) {
	ctx := context.Background()
	rollup, payments, orders, outboxRepo := newRollup()

	o := testutil.NewTestOrder("80.00", "USD")
	orders.AddOrder(o)

	p := testutil.NewAuthorizedOrderPayment(payments, "dummy", "80.00", "USD", o.ID)
	if err := p.ApplyCapture(money.MustNew("80.00", "USD")); err != nil {
		t.Fatal(err)
	}
	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatal(err)
	}

	if err := p.ApplyRefund(money.MustNew("80.00", "USD")); err != nil {
		t.Fatal(err)
	}
	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if got := orders.GetOrderByID(o.ID).ChargeStatus; got != domainOrder.StatusNone {
		t.Errorf("expected none after full refund, got %s", got)
	}

	if err := p.ApplyCapture(money.MustNew("80.00", "USD")); err != nil {
		t.Fatal(err)
	}
	if err := rollup.Execute(ctx, o.ID); err != nil {
		t.Fatal(err)
	}

	if got := len(outboxRepo.EntriesOfType(outbox.EventOrderFullyPaid)); got != 1 {
		t.Errorf("the fully-paid event fires at most once per order, got %d", got)
	}
}
