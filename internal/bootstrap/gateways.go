package bootstrap

import (
	"fmt"
	"time"

	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/adyen"
	"github.com/cassiomorais/paycore/internal/gateway/app"
	"github.com/cassiomorais/paycore/internal/gateway/dummy"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/cassiomorais/paycore/internal/gateway/stripe"
	"github.com/cassiomorais/paycore/internal/infrastructure/config"
)

// BuildRegistry assembles the provider registry from configuration and
// returns it together with the per-gateway webhook secrets for the intake.
func BuildRegistry(cfg *config.Config) (*registry.Registry, map[string][]byte, error) {
	reg := registry.New()
	secrets := make(map[string][]byte)

	for id, gc := range cfg.Gateways {
		adapter, caps, err := buildAdapter(id, gc)
		if err != nil {
			return nil, nil, fmt.Errorf("gateway %s: %w", id, err)
		}

		reg.Register(&registry.Entry{
			Adapter:             adapter,
			DisplayName:         displayName(id, gc),
			Active:              gc.Active,
			SupportedCurrencies: gc.SupportedCurrencies,
			Capabilities:        caps,
			ConnectionParams:    map[string]string{"base_url": gc.BaseURL},
		})
		if gc.WebhookSecret.IsSet() {
			secrets[id] = []byte(gc.WebhookSecret.Reveal())
		}
	}

	return reg, secrets, nil
}

func buildAdapter(id string, gc config.GatewayConfig) (gateway.Gateway, registry.Capabilities, error) {
	timeout := gc.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	switch gc.Kind {
	case "dummy":
		return dummy.New(dummy.WithID(id)), registry.Capabilities{
			Supports3DS:           true,
			SupportsRefundPartial: true,
			SupportsCustomerVault: true,
			AutoCapture:           gc.AutoCapture,
		}, nil
	case "adyen":
		return adyen.New(id, gc.BaseURL, gc.APIKey.Reveal(), gc.MerchantAccount, timeout),
			registry.Capabilities{
				Supports3DS:           gc.Supports3DS,
				SupportsRefundPartial: true,
				AutoCapture:           gc.AutoCapture,
			}, nil
	case "stripe":
		return stripe.New(id, gc.BaseURL, gc.APIKey.Reveal(), gc.PublishableKey.Reveal(), timeout),
			registry.Capabilities{
				Supports3DS:           gc.Supports3DS,
				SupportsRefundPartial: true,
				SupportsCustomerVault: true,
				AutoCapture:           gc.AutoCapture,
			}, nil
	case "app":
		return app.New(id, gc.BaseURL, []byte(gc.WebhookSecret.Reveal()), timeout),
			registry.Capabilities{
				Supports3DS: gc.Supports3DS,
				AutoCapture: gc.AutoCapture,
			}, nil
	default:
		return nil, registry.Capabilities{}, fmt.Errorf("unknown gateway kind %q", gc.Kind)
	}
}

func displayName(id string, gc config.GatewayConfig) string {
	if gc.DisplayName != "" {
		return gc.DisplayName
	}
	return id
}
