package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	"github.com/cassiomorais/paycore/internal/bootstrap"
	"github.com/cassiomorais/paycore/internal/domain/outbox"
	infraRedis "github.com/cassiomorais/paycore/internal/infrastructure/redis"
	"github.com/cassiomorais/paycore/internal/repository/postgres"
	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "paycore-worker", "paycore_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	orderRepo := postgres.NewOrderRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Gateways and services ---
	reg, webhookSecrets, err := bootstrap.BuildRegistry(app.Config)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to build gateway registry")
	}
	rollup := orderApp.NewRollup(orderRepo, paymentRepo, outboxRepo, app.Logger)
	orchestrator := paymentApp.NewOrchestrator(paymentRepo, reg, txManager, rollup, outboxRepo, app.Logger)

	streamProducer := infraRedis.NewStreamProducer(app.Redis)
	intake := webhook.NewIntake(paymentRepo, reg, orchestrator, streamProducer, webhookSecrets, app.Logger)

	// --- Webhook stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.WebhookStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.WebhookStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	w := &worker{
		app:         app,
		consumer:    consumer,
		producer:    streamProducer,
		intake:      intake,
		rollup:      rollup,
		tx:          txManager,
		outbox:      outboxRepo,
		idempotency: idempotencyRepo,
		logger:      app.Logger,
	}

	// 1. Webhook processor (reads new messages from the stream).
	g.Go(func() error {
		return w.runWebhookProcessor(gCtx)
	})

	// 2. Reclaimer (retries abandoned messages, parks poison ones).
	g.Go(func() error {
		return w.runReclaimer(gCtx)
	})

	// 3. Outbox drainer (publishes committed events).
	g.Go(func() error {
		return w.runOutboxDrainer(gCtx)
	})

	// 4. Expired idempotency key sweeper.
	g.Go(func() error {
		return w.runIdempotencySweeper(gCtx)
	})

	// 5. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

type worker struct {
	app         *bootstrap.App
	consumer    *infraRedis.StreamConsumer
	producer    *infraRedis.StreamProducer
	intake      *webhook.Intake
	rollup      *orderApp.Rollup
	tx          *postgres.TxManager
	outbox      *postgres.OutboxRepository
	idempotency *postgres.IdempotencyRepository
	logger      zerolog.Logger
}

func (w *worker) runWebhookProcessor(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := w.consumer.Read(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.handleWebhookMessage(ctx, msg.ID, msg.Values)
			}
		}
	}
}

// handleWebhookMessage processes one queued webhook. A processing failure
// leaves the message pending so the reclaimer retries it; a malformed
// message is acked immediately, retrying cannot fix it.
func (w *worker) handleWebhookMessage(ctx context.Context, msgID string, values map[string]any) {
	gatewayID, _ := values["gateway"].(string)
	body, _ := values["body"].(string)

	ev, err := webhook.ParseEvent(gatewayID, []byte(body))
	if err != nil {
		w.logger.Error().Err(err).Str("gateway", gatewayID).Msg("Malformed webhook in stream")
		w.consumer.Ack(ctx, msgID)
		w.app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "malformed").Inc()
		return
	}

	start := time.Now()
	if _, err := w.intake.Process(ctx, ev); err != nil {
		w.logger.Error().Err(err).
			Str("gateway", gatewayID).
			Str("event_type", ev.EventType).
			Msg("Failed to process webhook")
		w.app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "error").Inc()
		return
	}

	w.consumer.Ack(ctx, msgID)
	w.app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "success").Inc()
	w.app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.WebhookStream).Observe(time.Since(start).Seconds())
}

// runReclaimer retries webhook messages another consumer abandoned. A
// message past the delivery budget is parked on the DLQ and acked.
func (w *worker) runReclaimer(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pending, err := w.consumer.Pending(ctx, 30*time.Second, w.app.Config.Worker.BatchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to list pending webhooks")
			continue
		}
		if len(pending) == 0 {
			continue
		}

		ids := make([]string, 0, len(pending))
		deliveries := make(map[string]int64, len(pending))
		for _, p := range pending {
			ids = append(ids, p.ID)
			deliveries[p.ID] = p.RetryCount
		}

		msgs, err := w.consumer.Claim(ctx, 30*time.Second, ids)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to claim pending webhooks")
			continue
		}

		for _, msg := range msgs {
			if deliveries[msg.ID] >= w.app.Config.Worker.MaxDeliveries {
				gatewayID, _ := msg.Values["gateway"].(string)
				w.logger.Warn().
					Str("message_id", msg.ID).
					Str("gateway", gatewayID).
					Msg("Webhook exhausted deliveries, parking on DLQ")
				w.producer.PublishToDLQ(ctx, gatewayID, "max deliveries exceeded", msg.Values)
				w.consumer.Ack(ctx, msg.ID)
				w.app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "dlq").Inc()
				continue
			}
			w.handleWebhookMessage(ctx, msg.ID, msg.Values)
		}
	}
}

// runOutboxDrainer publishes committed outbox entries. A distributed lock
// keeps a single instance draining at a time.
func (w *worker) runOutboxDrainer(ctx context.Context) error {
	ticker := time.NewTicker(w.app.Config.Worker.OutboxPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		lock := infraRedis.NewDistributedLock(w.app.Redis, "outbox:drain", w.app.Config.Worker.LockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil || !acquired {
			continue
		}

		if err := w.drainOutbox(ctx); err != nil {
			w.logger.Error().Err(err).Msg("Outbox drain error")
		}
		if n, err := w.outbox.CountPending(ctx); err == nil {
			w.app.Metrics.OutboxPending.Set(float64(n))
		}
		lock.Release(ctx)
	}
}

// runIdempotencySweeper deletes expired idempotency keys. Low urgency,
// hourly is plenty.
func (w *worker) runIdempotencySweeper(ctx context.Context) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		deleted, err := w.idempotency.Cleanup(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("Idempotency key cleanup error")
			continue
		}
		if deleted > 0 {
			w.logger.Info().Int64("deleted", deleted).Msg("Swept expired idempotency keys")
		}
	}
}

func (w *worker) drainOutbox(ctx context.Context) error {
	return w.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		entries, err := w.outbox.GetPending(txCtx, int(w.app.Config.Worker.BatchSize))
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := w.dispatchOutboxEntry(ctx, txCtx, entry); err != nil {
				w.logger.Error().Err(err).
					Str("outbox_id", entry.ID.String()).
					Str("event_type", entry.EventType).
					Msg("Failed to dispatch outbox entry")
				w.outbox.MarkFailed(txCtx, entry.ID)
				continue
			}
			w.outbox.MarkPublished(txCtx, entry.ID)
		}
		return nil
	})
}

func (w *worker) dispatchOutboxEntry(ctx, txCtx context.Context, entry *outbox.Entry) error {
	switch entry.EventType {
	case outbox.EventPaymentTransacted:
		// A deferred rollup: the payment transaction committed but the
		// order recompute failed at the time. Recompute now under the
		// order lock.
		orderID, ok := entry.Payload["order_id"].(string)
		if !ok {
			return fmt.Errorf("outbox entry %s missing order_id", entry.ID)
		}
		id, err := uuid.Parse(orderID)
		if err != nil {
			return fmt.Errorf("outbox entry %s bad order_id: %w", entry.ID, err)
		}
		return w.rollup.Execute(txCtx, id)
	case outbox.EventOrderFullyPaid:
		w.app.Metrics.OrdersFullyPaid.Inc()
		return w.producer.PublishOrderEvent(ctx, entry.AggregateID.String(), entry.EventType, entry.Payload)
	default:
		return w.producer.PublishOrderEvent(ctx, entry.AggregateID.String(), entry.EventType, entry.Payload)
	}
}
