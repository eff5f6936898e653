package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/paycore/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// NewClient connects to the instance backing the webhook job streams and
// the drain lock. Connection retries are config driven so compose setups
// where redis comes up late still boot cleanly.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password.Reveal(),
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 5
	}
	delay := cfg.ConnectRetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var pingErr error
	for i := 0; i < attempts; i++ {
		if pingErr = client.Ping(ctx).Err(); pingErr == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * delay):
		}
	}

	client.Close()
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", attempts, pingErr)
}
