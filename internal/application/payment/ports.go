package payment

import (
	"context"

	"github.com/cassiomorais/paycore/internal/domain/outbox"
)

// TransactionManager runs fn atomically. Every orchestrator operation
// executes under it so the payment row lock, the appended transaction and
// any outbox entries commit or roll back as one unit. Implemented by
// postgres.TxManager.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxWriter records an event in the same transaction as the state
// change that caused it. The worker publishes pending entries later.
type OutboxWriter interface {
	Insert(ctx context.Context, entry *outbox.Entry) error
}
