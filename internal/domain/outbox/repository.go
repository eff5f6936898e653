package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the transactional outbox port. Inserts happen inside the
// same DB transaction as the state change they announce; the worker drains
// pending entries and publishes them to the order event stream.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error

	// GetPending returns pending entries up to limit, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed increments the retry count and parks the entry as failed
	// once MaxRetries is exhausted.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
