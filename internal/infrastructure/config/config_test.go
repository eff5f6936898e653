package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "paycore",
			Password: Secret("paycore"),
			Database: "paycore",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Webhook: WebhookConfig{
			MaxBodyBytes: 1 << 20,
			RedirectTTL:  15 * time.Minute,
		},
		Worker: WorkerConfig{
			BatchSize: 10,
		},
		Gateways: map[string]GatewayConfig{
			"dummy": {Kind: "dummy", Active: true},
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_BadWebhookBodyLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.MaxBodyBytes = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_GatewayMissingKind(t *testing.T) {
	cfg := validConfig()
	cfg.Gateways["broken"] = GatewayConfig{Active: true}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_AdyenNeedsMerchantAccount(t *testing.T) {
	cfg := validConfig()
	cfg.Gateways["adyen"] = GatewayConfig{Kind: "adyen", Active: true}
	assert.Error(t, cfg.Validate())

	cfg.Gateways["adyen"] = GatewayConfig{Kind: "adyen", Active: true, MerchantAccount: "Shop001"}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_ProductionRules(t *testing.T) {
	t.Setenv("ENV", "production")

	cfg := validConfig()
	// dummy gateway and a missing webhook secret are both rejected
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dummy gateway not allowed")
	assert.Contains(t, err.Error(), "webhook_secret required")

	cfg.Gateways = map[string]GatewayConfig{
		"adyen": {
			Kind:            "adyen",
			Active:          true,
			MerchantAccount: "Shop001",
			WebhookSecret:   Secret("whsec"),
		},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Database.Password = Secret("")
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	dsn := cfg.Database.DatabaseDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "password=paycore")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}
