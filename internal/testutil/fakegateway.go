package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/paycore/internal/gateway"
)

// FakeGateway is a scriptable gateway.Gateway. Each call pops the next
// queued response; an empty queue returns NextResponse/NextErr. Unlike the
// dummy adapter it happily returns whatever it was scripted with, broken
// contracts included.
type FakeGateway struct {
	mu    sync.Mutex
	id    string
	queue []scripted

	NextResponse *gateway.Response
	NextErr      error
	ClientToken  string

	Calls []string
}

type scripted struct {
	resp *gateway.Response
	err  error
}

func NewFakeGateway(id string) *FakeGateway {
	return &FakeGateway{id: id}
}

// Script queues a response for the next call, in FIFO order.
func (f *FakeGateway) Script(resp *gateway.Response, err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, scripted{resp: resp, err: err})
	return f
}

func (f *FakeGateway) next(op string) (*gateway.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	if len(f.queue) > 0 {
		s := f.queue[0]
		f.queue = f.queue[1:]
		return s.resp, s.err
	}
	return f.NextResponse, f.NextErr
}

func (f *FakeGateway) ID() string { return f.id }

func (f *FakeGateway) Authorize(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("authorize")
}

func (f *FakeGateway) Capture(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("capture")
}

func (f *FakeGateway) Refund(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("refund")
}

func (f *FakeGateway) Void(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("void")
}

func (f *FakeGateway) ProcessPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("process")
}

func (f *FakeGateway) ConfirmPayment(ctx context.Context, info gateway.PaymentInformation) (*gateway.Response, error) {
	return f.next("confirm")
}

func (f *FakeGateway) GetClientToken(ctx context.Context, cfg gateway.TokenConfig) (string, error) {
	if f.ClientToken != "" {
		return f.ClientToken, nil
	}
	return "fake-client-token", nil
}
