package payment_test

import (
	"context"
	"errors"
	"testing"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	domainOrder "github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/cassiomorais/paycore/internal/domain/outbox"
	domainPayment "github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/dummy"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/cassiomorais/paycore/internal/testutil"
	"github.com/rs/zerolog"
)

type fixture struct {
	orchestrator *paymentApp.Orchestrator
	payments     *testutil.MockPaymentRepository
	orders       *testutil.MockOrderRepository
	outbox       *testutil.MockOutboxRepository
	registry     *registry.Registry
}

func newFixture(adapters ...gateway.Gateway) *fixture {
	if len(adapters) == 0 {
		adapters = []gateway.Gateway{dummy.New()}
	}
	reg := registry.New()
	for _, a := range adapters {
		reg.Register(&registry.Entry{
			Adapter:     a,
			DisplayName: a.ID(),
			Active:      true,
		})
	}
	return newFixtureWithRegistry(reg)
}

func newFixtureWithRegistry(reg *registry.Registry) *fixture {
	payments := testutil.NewMockPaymentRepository()
	orders := testutil.NewMockOrderRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	logger := zerolog.Nop()

	rollup := orderApp.NewRollup(orders, payments, outboxRepo, logger)
	orchestrator := paymentApp.NewOrchestrator(
		payments, reg, testutil.NewMockTransactionManager(), rollup, outboxRepo, logger,
	)
	return &fixture{
		orchestrator: orchestrator,
		payments:     payments,
		orders:       orders,
		outbox:       outboxRepo,
		registry:     reg,
	}
}

func TestAuthorize_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	txn, err := f.orchestrator.Authorize(ctx, p.ID, "tok_visa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Kind != domainPayment.KindAuth || !txn.IsSuccess {
		t.Errorf("expected successful auth transaction, got kind=%s success=%v", txn.Kind, txn.IsSuccess)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusNotCharged {
		t.Errorf("authorization must not move funds, got status %s", updated.ChargeStatus)
	}
	if updated.PSPReference == "" {
		t.Error("expected psp reference to be recorded")
	}
	if updated.Method.LastDigits != "4242" {
		t.Errorf("expected method info to be recorded, got %+v", updated.Method)
	}
}

func TestAuthorize_Declined_RecordsFailureTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	txn, err := f.orchestrator.Authorize(ctx, p.ID, "fail-tok")
	if err == nil {
		t.Fatal("expected error from declined authorization")
	}
	var pe *domainErrors.PaymentError
	if !errors.As(err, &pe) || pe.Code != domainErrors.CodePaymentError {
		t.Fatalf("expected payment error code, got %v", err)
	}
	if txn == nil || txn.IsSuccess {
		t.Fatal("expected the failure transaction to be returned for audit")
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusNotCharged {
		t.Errorf("failed auth must not change status, got %s", updated.ChargeStatus)
	}
	if f.payments.TransactionCount(p.ID) != 1 {
		t.Errorf("expected one recorded transaction, got %d", f.payments.TransactionCount(p.ID))
	}
}

func TestAuthorize_Twice_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	if _, err := f.orchestrator.Authorize(ctx, p.ID, "tok"); err != nil {
		t.Fatalf("first auth: %v", err)
	}
	if _, err := f.orchestrator.Capture(ctx, p.ID, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}

	_, err := f.orchestrator.Authorize(ctx, p.ID, "tok")
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestCapture_Full(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	txn, err := f.orchestrator.Capture(ctx, p.ID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.Amount.Equal(p.Total) {
		t.Errorf("expected full capture of %s, got %s", p.Total, txn.Amount)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusFullyCharged {
		t.Errorf("expected fully charged, got %s", updated.ChargeStatus)
	}
}

func TestCapture_Partial(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	_, err := f.orchestrator.Capture(ctx, p.ID, testutil.MoneyPtr("30.00", "USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusPartiallyCharged {
		t.Errorf("expected partially charged, got %s", updated.ChargeStatus)
	}
	if updated.CapturedAmount.AmountString() != "30" {
		t.Errorf("expected captured 30, got %s", updated.CapturedAmount.AmountString())
	}
}

func TestCapture_ExceedsRemaining(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	_, err := f.orchestrator.Capture(ctx, p.ID, testutil.MoneyPtr("80.01", "USD"))
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeAmountInvalid}) {
		t.Fatalf("expected amount invalid, got %v", err)
	}
	if f.payments.TransactionCount(p.ID) != 1 {
		t.Error("over-capture must be rejected before the provider is called")
	}
}

func TestCapture_WrongCurrencyAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	_, err := f.orchestrator.Capture(ctx, p.ID, testutil.MoneyPtr("10.00", "EUR"))
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeAmountInvalid}) {
		t.Fatalf("expected amount invalid, got %v", err)
	}
}

func TestCapture_WithoutAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	_, err := f.orchestrator.Capture(ctx, p.ID, nil)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeUnauthorizedTransaction}) {
		t.Fatalf("expected unauthorized transaction, got %v", err)
	}
}

func TestVoid_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	txn, err := f.orchestrator.Void(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Kind != domainPayment.KindVoid {
		t.Errorf("expected void transaction, got %s", txn.Kind)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.IsActive {
		t.Error("voided payment must be inactive")
	}
}

func TestVoid_AfterCapture_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	if _, err := f.orchestrator.Capture(ctx, p.ID, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}
	_, err := f.orchestrator.Void(ctx, p.ID)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestRefund_PartialThenFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	if _, err := f.orchestrator.Capture(ctx, p.ID, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if _, err := f.orchestrator.Refund(ctx, p.ID, testutil.MoneyPtr("30.00", "USD")); err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusPartiallyRefunded {
		t.Errorf("expected partially refunded, got %s", updated.ChargeStatus)
	}

	if _, err := f.orchestrator.Refund(ctx, p.ID, nil); err != nil {
		t.Fatalf("full refund: %v", err)
	}
	updated, _ = f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusFullyRefunded {
		t.Errorf("expected fully refunded, got %s", updated.ChargeStatus)
	}
	if updated.IsActive {
		t.Error("fully refunded payment must be inactive")
	}
}

func TestRefund_BeforeCapture_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	_, err := f.orchestrator.Refund(ctx, p.ID, nil)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestRefund_ExceedsCaptured(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := testutil.NewAuthorizedPayment(f.payments, "dummy", "80.00", "USD")

	if _, err := f.orchestrator.Capture(ctx, p.ID, testutil.MoneyPtr("30.00", "USD")); err != nil {
		t.Fatalf("capture: %v", err)
	}
	_, err := f.orchestrator.Refund(ctx, p.ID, testutil.MoneyPtr("30.01", "USD"))
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeAmountInvalid}) {
		t.Fatalf("expected amount invalid, got %v", err)
	}
}

func TestOperation_InactivePayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	p.Deactivate()
	f.payments.Create(ctx, p)

	_, err := f.orchestrator.Authorize(ctx, p.ID, "tok")
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeNotActive}) {
		t.Fatalf("expected not active, got %v", err)
	}
}

func TestOperation_UnknownPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	_, err := f.orchestrator.Authorize(ctx, p.ID, "tok")
	if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOperation_ContractViolation_NothingPersisted(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeGateway("broken")
	fake.NextResponse = &gateway.Response{
		Kind:      domainPayment.KindAuth,
		IsSuccess: true,
		Amount:    money.MustNew("80.00", "EUR"),
	}
	f := newFixture(fake)

	p := testutil.NewTestPayment("broken", "80.00", "USD")
	f.payments.Create(ctx, p)

	_, err := f.orchestrator.Authorize(ctx, p.ID, "tok")
	var ge *domainErrors.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected gateway contract error, got %v", err)
	}
	if f.payments.TransactionCount(p.ID) != 0 {
		t.Error("no transaction may be persisted from a contract-violating response")
	}
	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusNotCharged {
		t.Errorf("payment state must not move, got %s", updated.ChargeStatus)
	}
}

func TestOperation_TransportError_SyntheticFailureRecorded(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeGateway("flaky")
	fake.NextErr = errors.New("connection reset")
	f := newFixture(fake)

	p := testutil.NewTestPayment("flaky", "80.00", "USD")
	f.payments.Create(ctx, p)

	txn, err := f.orchestrator.Authorize(ctx, p.ID, "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if txn == nil || txn.IsSuccess || txn.Kind != domainPayment.KindAuth {
		t.Fatalf("expected synthetic failed auth transaction, got %+v", txn)
	}
	if txn.Error == "" {
		t.Error("expected the transport error to be recorded on the transaction")
	}
}

func TestProcess_3DS_RequiresAction_ThenConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	txn, err := f.orchestrator.Process(ctx, p.ID, "3ds-tok", false)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !txn.ActionRequired || txn.Kind != domainPayment.KindActionToConfirm {
		t.Fatalf("expected action-to-confirm transaction, got kind=%s action=%v", txn.Kind, txn.ActionRequired)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if !updated.ToConfirm {
		t.Fatal("payment must await confirmation")
	}
	if updated.ChargeStatus != domainPayment.StatusNotCharged {
		t.Errorf("no funds may move on an interrupted flow, got %s", updated.ChargeStatus)
	}

	confirmTxn, err := f.orchestrator.Confirm(ctx, p.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmTxn.IsSuccess {
		t.Fatal("expected successful confirmation")
	}

	updated, _ = f.payments.GetByID(ctx, p.ID)
	if updated.ToConfirm {
		t.Error("confirmation flag must be cleared")
	}
	if updated.ChargeStatus != domainPayment.StatusFullyCharged {
		t.Errorf("expected fully charged after confirm, got %s", updated.ChargeStatus)
	}
}

func TestConfirm_ManualCaptureProvider_ThenCapture(t *testing.T) {
	// Providers without auto-capture answer the 3-DS confirmation with
	// kind CONFIRM instead of AUTH. The confirmed payment must still be
	// capturable and voidable.
	ctx := context.Background()
	fake := testutil.NewFakeGateway("manual")
	fake.Script(&gateway.Response{
		Kind:               domainPayment.KindActionToConfirm,
		IsSuccess:          true,
		ActionRequired:     true,
		ActionRequiredData: map[string]any{"type": "redirect"},
		TransactionID:      "psp-1",
		Amount:             money.MustNew("80.00", "USD"),
	}, nil).Script(&gateway.Response{
		Kind:          domainPayment.KindConfirm,
		IsSuccess:     true,
		TransactionID: "psp-2",
		Amount:        money.MustNew("80.00", "USD"),
	}, nil).Script(&gateway.Response{
		Kind:          domainPayment.KindCapture,
		IsSuccess:     true,
		TransactionID: "psp-3",
		Amount:        money.MustNew("80.00", "USD"),
	}, nil)
	f := newFixture(fake)

	p := testutil.NewTestPayment("manual", "80.00", "USD")
	f.payments.Create(ctx, p)

	if _, err := f.orchestrator.Process(ctx, p.ID, "3ds-tok", false); err != nil {
		t.Fatalf("process: %v", err)
	}
	confirmTxn, err := f.orchestrator.Confirm(ctx, p.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmTxn.Kind != domainPayment.KindConfirm || !confirmTxn.IsSuccess {
		t.Fatalf("expected successful confirm transaction, got kind=%s success=%v", confirmTxn.Kind, confirmTxn.IsSuccess)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusNotCharged {
		t.Fatalf("a bare confirm must not move funds, got %s", updated.ChargeStatus)
	}

	captureTxn, err := f.orchestrator.Capture(ctx, p.ID, nil)
	if err != nil {
		t.Fatalf("capture after confirm: %v", err)
	}
	if captureTxn.Kind != domainPayment.KindCapture {
		t.Errorf("expected capture transaction, got %s", captureTxn.Kind)
	}

	updated, _ = f.payments.GetByID(ctx, p.ID)
	if updated.ChargeStatus != domainPayment.StatusFullyCharged {
		t.Errorf("expected fully charged, got %s", updated.ChargeStatus)
	}
}

func TestConfirm_ManualCaptureProvider_ThenVoid(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeGateway("manual")
	fake.Script(&gateway.Response{
		Kind:               domainPayment.KindActionToConfirm,
		IsSuccess:          true,
		ActionRequired:     true,
		ActionRequiredData: map[string]any{"type": "redirect"},
		TransactionID:      "psp-1",
		Amount:             money.MustNew("80.00", "USD"),
	}, nil).Script(&gateway.Response{
		Kind:          domainPayment.KindConfirm,
		IsSuccess:     true,
		TransactionID: "psp-2",
		Amount:        money.MustNew("80.00", "USD"),
	}, nil).Script(&gateway.Response{
		Kind:          domainPayment.KindVoid,
		IsSuccess:     true,
		TransactionID: "psp-3",
		Amount:        money.MustNew("80.00", "USD"),
	}, nil)
	f := newFixture(fake)

	p := testutil.NewTestPayment("manual", "80.00", "USD")
	f.payments.Create(ctx, p)

	if _, err := f.orchestrator.Process(ctx, p.ID, "3ds-tok", false); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := f.orchestrator.Confirm(ctx, p.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.orchestrator.Void(ctx, p.ID); err != nil {
		t.Fatalf("void after confirm: %v", err)
	}

	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.IsActive {
		t.Error("voided payment must be inactive")
	}
}

func TestConfirm_WithoutPendingAction(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	_, err := f.orchestrator.Confirm(ctx, p.ID)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestProcess_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	if _, err := f.orchestrator.Process(ctx, p.ID, "tok", false); err != nil {
		t.Fatalf("process: %v", err)
	}
	_, err := f.orchestrator.Process(ctx, p.ID, "tok", false)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestAttachOrder_ChargedCheckoutPayment_RollsUpOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)
	if _, err := f.orchestrator.Authorize(ctx, p.ID, "tok"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if _, err := f.orchestrator.Capture(ctx, p.ID, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}

	o := testutil.NewTestOrder("80.00", "USD")
	f.orders.AddOrder(o)

	attached, err := f.orchestrator.AttachOrder(ctx, p.ID, o.ID)
	if err != nil {
		t.Fatalf("attach order: %v", err)
	}
	if attached.OrderID == nil || *attached.OrderID != o.ID {
		t.Fatal("expected order id to be recorded on the payment")
	}
	if attached.CheckoutID == nil {
		t.Error("checkout parent must survive order attachment")
	}

	updated := f.orders.GetOrderByID(o.ID)
	if updated.ChargeStatus != domainOrder.StatusFull {
		t.Errorf("expected attached order to roll up as fully charged, got %s", updated.ChargeStatus)
	}
	events := f.outbox.EntriesOfType(outbox.EventOrderFullyPaid)
	if len(events) != 1 {
		t.Fatalf("expected exactly one fully-paid event, got %d", len(events))
	}
}

func TestAttachOrder_SameOrderTwice_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)
	o := testutil.NewTestOrder("80.00", "USD")
	f.orders.AddOrder(o)

	if _, err := f.orchestrator.AttachOrder(ctx, p.ID, o.ID); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if _, err := f.orchestrator.AttachOrder(ctx, p.ID, o.ID); err != nil {
		t.Fatalf("repeated attach must be a no-op, got %v", err)
	}
}

func TestAttachOrder_DifferentOrder_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first := testutil.NewTestOrder("80.00", "USD")
	f.orders.AddOrder(first)
	p := testutil.NewTestOrderPayment("dummy", "80.00", "USD", first.ID)
	f.payments.Create(ctx, p)

	second := testutil.NewTestOrder("80.00", "USD")
	f.orders.AddOrder(second)

	_, err := f.orchestrator.AttachOrder(ctx, p.ID, second.ID)
	if !errors.Is(err, &domainErrors.PaymentError{Code: domainErrors.CodeInvalidState}) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestAttachOrder_UnknownOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	_, err := f.orchestrator.AttachOrder(ctx, p.ID, testutil.NewTestOrder("80.00", "USD").ID)
	if !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestDeactivatePayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p := testutil.NewTestPayment("dummy", "80.00", "USD")
	f.payments.Create(ctx, p)

	if err := f.orchestrator.DeactivatePayment(ctx, p.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	updated, _ := f.payments.GetByID(ctx, p.ID)
	if updated.IsActive {
		t.Error("expected payment to be inactive")
	}
}
