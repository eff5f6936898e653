package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, total_gross, total_authorized, total_captured, currency,
	        charge_status, paid_event_sent, created_at, updated_at`

// OrderRepository implements order.Repository using PostgreSQL. Only the
// paid-rollup slice of the order row is read and written here.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.scanOrder(r.db(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetByIDForUpdate locks the order row. The rollup always takes this lock
// after the payment row lock, never before.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.scanOrder(r.db(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (r *OrderRepository) UpdatePaidAmounts(ctx context.Context, o *order.Order) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET
		  total_authorized=$1, total_captured=$2, charge_status=$3,
		  paid_event_sent=$4, updated_at=$5
		 WHERE id=$6`,
		moneyToNumeric(o.TotalAuthorized), moneyToNumeric(o.TotalCaptured),
		string(o.ChargeStatus), o.PaidEventSent, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order paid amounts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOrder(s scanner) (*order.Order, error) {
	o := &order.Order{}
	var (
		grossStr      string
		authorizedStr string
		capturedStr   string
		currency      string
		status        string
	)
	err := s.Scan(
		&o.ID, &grossStr, &authorizedStr, &capturedStr, &currency,
		&status, &o.PaidEventSent, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.TotalGross, err = numericToMoney(grossStr, currency); err != nil {
		return nil, fmt.Errorf("parse total gross: %w", err)
	}
	if o.TotalAuthorized, err = numericToMoney(authorizedStr, currency); err != nil {
		return nil, fmt.Errorf("parse total authorized: %w", err)
	}
	if o.TotalCaptured, err = numericToMoney(capturedStr, currency); err != nil {
		return nil, fmt.Errorf("parse total captured: %w", err)
	}
	o.ChargeStatus = order.ChargeStatus(status)
	return o, nil
}
