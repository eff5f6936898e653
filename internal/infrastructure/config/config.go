package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig             `mapstructure:"server"`
	Database      DatabaseConfig           `mapstructure:"database"`
	Redis         RedisConfig              `mapstructure:"redis"`
	Gateways      map[string]GatewayConfig `mapstructure:"gateways"`
	Webhook       WebhookConfig            `mapstructure:"webhook"`
	Worker        WorkerConfig             `mapstructure:"worker"`
	Observability ObservabilityConfig      `mapstructure:"observability"`
	InstanceID    string                   `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RatePerMinute   int           `mapstructure:"rate_per_minute"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        Secret        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          Secret        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// GatewayConfig configures one provider adapter. Kind selects the adapter
// implementation ("dummy", "adyen", "stripe", "app"); the remaining fields feed its
// constructor. WebhookSecret also authenticates inbound notifications for
// the gateway.
type GatewayConfig struct {
	Kind                string        `mapstructure:"kind"`
	DisplayName         string        `mapstructure:"display_name"`
	Active              bool          `mapstructure:"active"`
	APIKey              Secret        `mapstructure:"api_key"`
	WebhookSecret       Secret        `mapstructure:"webhook_secret"`
	BaseURL             string        `mapstructure:"base_url"`
	MerchantAccount     string        `mapstructure:"merchant_account"`
	PublishableKey      Secret        `mapstructure:"publishable_key"`
	SupportedCurrencies []string      `mapstructure:"supported_currencies"`
	AutoCapture         bool          `mapstructure:"auto_capture"`
	Supports3DS         bool          `mapstructure:"supports_3ds"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

type WebhookConfig struct {
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	RedirectTTL  time.Duration `mapstructure:"redirect_ttl"`
}

type WorkerConfig struct {
	BatchSize          int64         `mapstructure:"batch_size"`
	BlockDuration      time.Duration `mapstructure:"block_duration"`
	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
	MaxDeliveries      int64         `mapstructure:"max_deliveries"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// PAYCORE_DATABASE_HOST overrides database.host, and so on.
	v.SetEnvPrefix("PAYCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paycore")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Webhook.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("webhook.max_body_bytes must be positive"))
	}
	if c.Worker.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("worker.batch_size must be positive"))
	}

	for id, gw := range c.Gateways {
		if gw.Kind == "" {
			errs = append(errs, fmt.Errorf("gateways.%s.kind is required", id))
		}
		if gw.Kind == "adyen" && gw.MerchantAccount == "" {
			errs = append(errs, fmt.Errorf("gateways.%s.merchant_account is required for adyen", id))
		}
	}

	env := os.Getenv("ENV")
	if env == "production" || env == "prod" {
		if !c.Database.Password.IsSet() {
			errs = append(errs, fmt.Errorf("database.password required in production"))
		}
		for id, gw := range c.Gateways {
			if gw.Kind == "dummy" {
				errs = append(errs, fmt.Errorf("gateways.%s: dummy gateway not allowed in production", id))
			}
			if gw.Active && !gw.WebhookSecret.IsSet() {
				errs = append(errs, fmt.Errorf("gateways.%s.webhook_secret required in production", id))
			}
		}
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_per_minute", 300)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "paycore")
	v.SetDefault("database.database", "paycore")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Webhook defaults
	v.SetDefault("webhook.max_body_bytes", 1<<20)
	v.SetDefault("webhook.redirect_ttl", "15m")

	// Worker defaults
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_duration", "1s")
	v.SetDefault("worker.outbox_poll_interval", "2s")
	v.SetDefault("worker.consumer_group", "webhook-processors")
	v.SetDefault("worker.idempotency_ttl", "24h")
	v.SetDefault("worker.lock_ttl", "30s")
	v.SetDefault("worker.max_deliveries", 5)

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	// Instance ID
	v.SetDefault("instance_id", "paycore-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password.Reveal(), c.Database, c.SSLMode,
	)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
