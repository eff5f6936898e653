package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, checkout_id, order_id, gateway, is_active, to_confirm,
	        total, captured_amount, currency, charge_status, billing_email,
	        billing_address, payment_method, customer_id, psp_reference,
	        extra_data, return_url, created_at, modified_at`

const transactionColumns = `id, payment_id, kind, token, is_success, action_required,
	        action_required_data, amount, currency, gateway_response, error,
	        already_processed, created_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
// The transaction log lives in a child table; rows there are append-only
// apart from the already_processed latch.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	billing, err := json.Marshal(p.Billing)
	if err != nil {
		return fmt.Errorf("marshal billing address: %w", err)
	}
	method, err := json.Marshal(p.Method)
	if err != nil {
		return fmt.Errorf("marshal payment method: %w", err)
	}
	extra, err := json.Marshal(p.ExtraData)
	if err != nil {
		return fmt.Errorf("marshal extra data: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO payments
		 (id, checkout_id, order_id, gateway, is_active, to_confirm,
		  total, captured_amount, currency, charge_status, billing_email,
		  billing_address, payment_method, customer_id, psp_reference,
		  extra_data, return_url, created_at, modified_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.CheckoutID, p.OrderID, p.Gateway, p.IsActive, p.ToConfirm,
		moneyToNumeric(p.Total), moneyToNumeric(p.CapturedAmount), p.Total.Currency,
		string(p.ChargeStatus), p.BillingEmail,
		billing, method, p.CustomerID, p.PSPReference,
		extra, p.ReturnURL, p.CreatedAt, p.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a payment under an exclusive row lock. Callers
// must be inside a transaction; against the bare pool the lock releases
// immediately and provides no isolation.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

// GetByPSPReference resolves a payment from the provider's own reference,
// scoped to one gateway so references cannot collide across providers.
func (r *PaymentRepository) GetByPSPReference(ctx context.Context, gateway, reference string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE gateway = $1 AND psp_reference = $2`,
		gateway, reference))
}

// Update persists mutable payment fields. Identity, parent and total are
// immutable after create and never touched here.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	method, err := json.Marshal(p.Method)
	if err != nil {
		return fmt.Errorf("marshal payment method: %w", err)
	}
	extra, err := json.Marshal(p.ExtraData)
	if err != nil {
		return fmt.Errorf("marshal extra data: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments SET
		  order_id=$1, is_active=$2, to_confirm=$3, captured_amount=$4,
		  charge_status=$5, payment_method=$6, customer_id=$7,
		  psp_reference=$8, extra_data=$9, modified_at=$10
		 WHERE id=$11`,
		p.OrderID, p.IsActive, p.ToConfirm, moneyToNumeric(p.CapturedAmount),
		string(p.ChargeStatus), method, p.CustomerID,
		p.PSPReference, extra, p.ModifiedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

// ListByOrder lists every payment attached to an order, oldest first.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments by order: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AddTransaction appends a transaction to the payment's log.
func (r *PaymentRepository) AddTransaction(ctx context.Context, txn *payment.Transaction) error {
	actionData, err := json.Marshal(txn.ActionRequiredData)
	if err != nil {
		return fmt.Errorf("marshal action required data: %w", err)
	}
	response, err := json.Marshal(txn.GatewayResponse)
	if err != nil {
		return fmt.Errorf("marshal gateway response: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO payment_transactions
		 (id, payment_id, kind, token, is_success, action_required,
		  action_required_data, amount, currency, gateway_response, error,
		  already_processed, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		txn.ID, txn.PaymentID, string(txn.Kind), txn.Token, txn.IsSuccess, txn.ActionRequired,
		actionData, moneyToNumeric(txn.Amount), txn.Amount.Currency, response, txn.Error,
		txn.AlreadyProcessed, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransactions retrieves the payment's transactions ordered by creation time.
func (r *PaymentRepository) GetTransactions(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM payment_transactions WHERE payment_id = $1 ORDER BY created_at ASC, id ASC`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*payment.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// MarkTransactionProcessed sets the already_processed latch.
func (r *PaymentRepository) MarkTransactionProcessed(ctx context.Context, txnID uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payment_transactions SET already_processed = TRUE WHERE id = $1`, txnID)
	if err != nil {
		return fmt.Errorf("mark transaction processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

// --- scanning helpers ---

func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{}
	var (
		totalStr    string
		capturedStr string
		currency    string
		status      string
		billing     []byte
		method      []byte
		extra       []byte
	)
	err := s.Scan(
		&p.ID, &p.CheckoutID, &p.OrderID, &p.Gateway, &p.IsActive, &p.ToConfirm,
		&totalStr, &capturedStr, &currency, &status, &p.BillingEmail,
		&billing, &method, &p.CustomerID, &p.PSPReference,
		&extra, &p.ReturnURL, &p.CreatedAt, &p.ModifiedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	if p.Total, err = numericToMoney(totalStr, currency); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if p.CapturedAmount, err = numericToMoney(capturedStr, currency); err != nil {
		return nil, fmt.Errorf("parse captured amount: %w", err)
	}
	p.ChargeStatus = payment.ChargeStatus(status)

	if len(billing) > 0 {
		if err := json.Unmarshal(billing, &p.Billing); err != nil {
			return nil, fmt.Errorf("unmarshal billing address: %w", err)
		}
	}
	if len(method) > 0 {
		if err := json.Unmarshal(method, &p.Method); err != nil {
			return nil, fmt.Errorf("unmarshal payment method: %w", err)
		}
	}
	p.ExtraData = make(map[string]any)
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &p.ExtraData); err != nil {
			return nil, fmt.Errorf("unmarshal extra data: %w", err)
		}
	}
	return p, nil
}

func (r *PaymentRepository) scanTransaction(s scanner) (*payment.Transaction, error) {
	t := &payment.Transaction{}
	var (
		kind       string
		amountStr  string
		currency   string
		actionData []byte
		response   []byte
	)
	err := s.Scan(
		&t.ID, &t.PaymentID, &kind, &t.Token, &t.IsSuccess, &t.ActionRequired,
		&actionData, &amountStr, &currency, &response, &t.Error,
		&t.AlreadyProcessed, &t.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Kind = payment.TransactionKind(kind)
	if t.Amount, err = numericToMoney(amountStr, currency); err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	if len(actionData) > 0 {
		if err := json.Unmarshal(actionData, &t.ActionRequiredData); err != nil {
			return nil, fmt.Errorf("unmarshal action required data: %w", err)
		}
	}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &t.GatewayResponse); err != nil {
			return nil, fmt.Errorf("unmarshal gateway response: %w", err)
		}
	}
	return t, nil
}
