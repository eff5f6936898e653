package payment

import (
	"context"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
)

// ListPaymentGateways enumerates gateways eligible for a storefront as
// masked views; secrets never cross this surface.
func (o *Orchestrator) ListPaymentGateways(currency string, activeOnly bool) []registry.View {
	return o.registry.List(currency, activeOnly)
}

// GetClientToken produces a short-lived token the storefront uses to
// collect payment data client-side.
func (o *Orchestrator) GetClientToken(ctx context.Context, gatewayID string, cfg gateway.TokenConfig) (string, error) {
	adapter, _, err := o.registry.Get(gatewayID)
	if err != nil {
		return "", err
	}
	return adapter.GetClientToken(ctx, cfg)
}

// ListPaymentSources lists a customer's stored payment methods at the
// gateway, when the gateway supports a customer vault.
func (o *Orchestrator) ListPaymentSources(ctx context.Context, gatewayID, customerID string) ([]gateway.CustomerSource, error) {
	adapter, _, err := o.registry.Get(gatewayID)
	if err != nil {
		return nil, err
	}
	lister, ok := adapter.(gateway.SourceLister)
	if !ok {
		return nil, domainErrors.NewPaymentError(domainErrors.CodeGatewayNotAvailable, "gateway does not store payment sources")
	}
	return lister.ListPaymentSources(ctx, customerID)
}
