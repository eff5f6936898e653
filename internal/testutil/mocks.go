package testutil

import (
	"context"
	"sync"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/order"
	"github.com/cassiomorais/paycore/internal/domain/outbox"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/google/uuid"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is an in-memory implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
	txns     map[uuid.UUID][]*payment.Transaction

	CreateFunc          func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	UpdateFunc          func(ctx context.Context, p *payment.Payment) error
	AddTransactionFunc  func(ctx context.Context, txn *payment.Transaction) error
	GetTransactionsFunc func(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		txns:     make(map[uuid.UUID][]*payment.Transaction),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) GetByPSPReference(ctx context.Context, gateway, reference string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Gateway == gateway && p.PSPReference == reference {
			return p, nil
		}
	}
	return nil, domainErrors.ErrPaymentNotFound
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.payments {
		if p.OrderID != nil && *p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPaymentRepository) AddTransaction(ctx context.Context, txn *payment.Transaction) error {
	if m.AddTransactionFunc != nil {
		return m.AddTransactionFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.PaymentID] = append(m.txns[txn.PaymentID], txn)
	return nil
}

func (m *MockPaymentRepository) GetTransactions(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*payment.Transaction, len(m.txns[paymentID]))
	copy(out, m.txns[paymentID])
	return out, nil
}

func (m *MockPaymentRepository) MarkTransactionProcessed(ctx context.Context, txnID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, txns := range m.txns {
		for _, t := range txns {
			if t.ID == txnID {
				t.AlreadyProcessed = true
				return nil
			}
		}
	}
	return domainErrors.ErrPaymentNotFound
}

// TransactionCount returns the number of stored transactions for a payment
// (test helper, no context needed).
func (m *MockPaymentRepository) TransactionCount(paymentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txns[paymentID])
}

// --- Order Repository Mock ---

// MockOrderRepository is an in-memory implementation of order.Repository.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	UpdatePaidAmountsFunc func(ctx context.Context, o *order.Order) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrderRepository) AddOrder(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) UpdatePaidAmounts(ctx context.Context, o *order.Order) error {
	if m.UpdatePaidAmountsFunc != nil {
		return m.UpdatePaidAmountsFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	m.orders[o.ID] = o
	return nil
}

// GetOrderByID returns the stored order (test helper, no context needed).
func (m *MockOrderRepository) GetOrderByID(id uuid.UUID) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the function directly, with no database.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Outbox Repository Mock ---

// MockOutboxRepository records inserted entries for assertions.
type MockOutboxRepository struct {
	mu      sync.Mutex
	entries []*outbox.Entry

	InsertFunc func(ctx context.Context, entry *outbox.Entry) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = outbox.StatusPublished
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = outbox.StatusFailed
			return nil
		}
	}
	return nil
}

// Entries returns a copy of everything inserted (test helper).
func (m *MockOutboxRepository) Entries() []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*outbox.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// EntriesOfType returns inserted entries with the given event type.
func (m *MockOutboxRepository) EntriesOfType(eventType string) []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range m.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
