package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the port through which the rollup reads and updates order
// paid fields. Lock order is always Payment before Order.
type Repository interface {
	// GetByID retrieves the order's paid slice.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetByIDForUpdate retrieves the order under an exclusive row lock.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdatePaidAmounts persists the rollup fields.
	UpdatePaidAmounts(ctx context.Context, o *Order) error
}
