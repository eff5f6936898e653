package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/redis/go-redis/v9"
)

const (
	WebhookStream    = "webhooks:incoming"
	OrderEventStream = "orders:events"
	DLQStream        = "webhooks:dlq"
)

// StreamProducer publishes webhook jobs for the worker. It satisfies
// webhook.JobEnqueuer so the intake never blocks on processing.
type StreamProducer struct {
	client *redis.Client
}

func NewStreamProducer(client *redis.Client) *StreamProducer {
	return &StreamProducer{client: client}
}

// EnqueueWebhook publishes a parsed provider event onto the webhook stream.
// The raw body travels with the message so the worker re-parses it under
// the same rules as a synchronous request.
func (p *StreamProducer) EnqueueWebhook(ctx context.Context, ev *webhook.IncomingEvent) error {
	body, err := json.Marshal(ev.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook body: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: WebhookStream,
		Values: map[string]any{
			"gateway":    ev.Gateway,
			"event_type": ev.EventType,
			"body":       string(body),
			"timestamp":  time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to enqueue webhook: %w", err)
	}

	return nil
}

// PublishOrderEvent emits an order lifecycle event, e.g. order.fully_paid,
// for downstream consumers.
func (p *StreamProducer) PublishOrderEvent(ctx context.Context, orderID string, eventType string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: OrderEventStream,
		Values: map[string]any{
			"order_id":   orderID,
			"event_type": eventType,
			"payload":    string(payload),
			"timestamp":  time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	return nil
}

// PublishToDLQ parks a webhook message that exhausted its deliveries.
func (p *StreamProducer) PublishToDLQ(ctx context.Context, gatewayID string, reason string, values map[string]any) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: DLQStream,
		Values: map[string]any{
			"gateway":   gatewayID,
			"reason":    reason,
			"payload":   string(payload),
			"timestamp": time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	return nil
}

// StreamConsumer reads a stream through a consumer group so webhook jobs
// are delivered at-least-once across worker replicas. Unacked messages
// stay pending until Claim hands them to a live consumer.
type StreamConsumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
}

func NewStreamConsumer(
	client *redis.Client,
	stream string,
	group string,
	consumer string,
	batchSize int64,
	blockDuration time.Duration,
) *StreamConsumer {
	return &StreamConsumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
	}
}

func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	// Create stream if it doesn't exist
	const busyGroupMsg = "BUSYGROUP"
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), busyGroupMsg) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (c *StreamConsumer) Read(ctx context.Context) ([]redis.XStream, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			// No new messages before the block timeout.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	return streams, nil
}

func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	err := c.client.XAck(ctx, c.stream, c.group, messageID).Err()
	if err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// Pending lists messages delivered to the group but never acked, so a
// restarted worker can reclaim abandoned webhooks.
func (c *StreamConsumer) Pending(ctx context.Context, minIdleTime time.Duration, count int64) ([]redis.XPendingExt, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Idle:   minIdleTime,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	return pending, nil
}

func (c *StreamConsumer) Claim(ctx context.Context, minIdleTime time.Duration, messageIDs []string) ([]redis.XMessage, error) {
	messages, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  minIdleTime,
		Messages: messageIDs,
	}).Result()

	if err != nil {
		return nil, fmt.Errorf("failed to claim messages: %w", err)
	}

	return messages, nil
}
