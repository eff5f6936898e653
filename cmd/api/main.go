package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	orderApp "github.com/cassiomorais/paycore/internal/application/order"
	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	"github.com/cassiomorais/paycore/internal/bootstrap"
	"github.com/cassiomorais/paycore/internal/controller"
	infraRedis "github.com/cassiomorais/paycore/internal/infrastructure/redis"
	"github.com/cassiomorais/paycore/internal/repository/postgres"
	"github.com/cassiomorais/paycore/internal/webhook"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "paycore-api", "paycore")
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

	// --- Gateways ---
	reg, webhookSecrets, err := bootstrap.BuildRegistry(app.Config)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to build gateway registry")
	}

	// --- Application services ---
	rollup := orderApp.NewRollup(orderRepo, paymentRepo, outboxRepo, app.Logger)
	orchestrator := paymentApp.NewOrchestrator(paymentRepo, reg, txManager, rollup, outboxRepo, app.Logger)

	streamProducer := infraRedis.NewStreamProducer(app.Redis)
	intake := webhook.NewIntake(paymentRepo, reg, orchestrator, streamProducer, webhookSecrets, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		Orchestrator:    orchestrator,
		Registry:        reg,
		Intake:          intake,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		CORSConfig:      app.Config.Server.CORS,
		Webhook:         app.Config.Webhook,
		RatePerMinute:   app.Config.Server.RatePerMinute,
		Logger:          app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
