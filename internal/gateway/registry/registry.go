// Package registry holds the process-wide set of configured payment
// gateways. It is built once at startup and injected into the orchestrator.
package registry

import (
	"strings"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/sony/gobreaker/v2"
)

// Capabilities are per-gateway feature flags.
type Capabilities struct {
	Supports3DS           bool
	SupportsRefundPartial bool
	SupportsCustomerVault bool
	AutoCapture           bool
}

// Entry is one registered gateway with its configuration.
type Entry struct {
	Adapter             gateway.Gateway
	DisplayName         string
	Active              bool
	SupportedCurrencies []string
	Capabilities        Capabilities
	// ConnectionParams holds non-secret connection settings. Secrets stay
	// inside the adapter and are never exposed through the registry.
	ConnectionParams map[string]string
}

// View is the masked, read-only representation safe for any response
// surface. It never contains secret material.
type View struct {
	ID                  string   `json:"id"`
	DisplayName         string   `json:"name"`
	Active              bool     `json:"active"`
	SupportedCurrencies []string `json:"currencies"`
	Supports3DS         bool     `json:"supports_3ds"`
	AutoCapture         bool     `json:"auto_capture"`
}

// Registry maps gateway ids to adapters. Reads are frequent (every
// orchestrator operation); writes happen only on admin toggles.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	breakers map[string]*gobreaker.CircuitBreaker[*gateway.Response]
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[string]*Entry),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*gateway.Response]),
	}
}

// Register adds a gateway with its configuration and wires a circuit
// breaker around it.
func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.Adapter.ID()
	r.entries[id] = e
	r.breakers[id] = gobreaker.NewCircuitBreaker[*gateway.Response](gobreaker.Settings{
		Name:        id,
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
}

// Get resolves an active gateway adapter and its circuit breaker.
func (r *Registry) Get(id string) (gateway.Gateway, *gobreaker.CircuitBreaker[*gateway.Response], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok || !e.Active {
		return nil, nil, domainErrors.NewPaymentError(domainErrors.CodeGatewayNotAvailable, "gateway "+id+" is not available")
	}
	return e.Adapter, r.breakers[id], nil
}

// Lookup returns the entry regardless of the active flag, for admin reads.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// List enumerates gateways eligible for a storefront, optionally filtered
// by currency, as masked views.
func (r *Registry) List(currency string, activeOnly bool) []View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []View
	for id, e := range r.entries {
		if activeOnly && !e.Active {
			continue
		}
		if currency != "" && !supportsCurrency(e, currency) {
			continue
		}
		out = append(out, View{
			ID:                  id,
			DisplayName:         e.DisplayName,
			Active:              e.Active,
			SupportedCurrencies: e.SupportedCurrencies,
			Supports3DS:         e.Capabilities.Supports3DS,
			AutoCapture:         e.Capabilities.AutoCapture,
		})
	}
	return out
}

// IsCurrencySupported reports whether the gateway accepts the currency.
// An empty supported list means all currencies.
func (r *Registry) IsCurrencySupported(currency, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	return supportsCurrency(e, currency)
}

// SetActive toggles a gateway's active flag. Returns false when the id is
// unknown.
func (r *Registry) SetActive(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.Active = active
	return true
}

func supportsCurrency(e *Entry, currency string) bool {
	if len(e.SupportedCurrencies) == 0 {
		return true
	}
	for _, c := range e.SupportedCurrencies {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}
