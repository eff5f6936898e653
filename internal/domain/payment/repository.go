package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence.
type Repository interface {
	// Create creates a new payment.
	Create(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByIDForUpdate retrieves a payment under an exclusive row lock.
	// Must be called inside a transaction; the lock is held until commit.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByPSPReference retrieves a payment by the provider's reference.
	GetByPSPReference(ctx context.Context, gateway, reference string) (*Payment, error)

	// Update persists payment field changes.
	Update(ctx context.Context, payment *Payment) error

	// ListByOrder lists every payment attached to an order.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)

	// AddTransaction appends a transaction to the payment's log.
	AddTransaction(ctx context.Context, txn *Transaction) error

	// GetTransactions retrieves the payment's transactions ordered by
	// creation time.
	GetTransactions(ctx context.Context, paymentID uuid.UUID) ([]*Transaction, error)

	// MarkTransactionProcessed sets the already_processed latch.
	MarkTransactionProcessed(ctx context.Context, txnID uuid.UUID) error
}
