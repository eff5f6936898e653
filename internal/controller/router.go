package controller

import (
	"time"

	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/cassiomorais/paycore/internal/infrastructure/config"
	"github.com/cassiomorais/paycore/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/paycore/internal/middleware"
	"github.com/cassiomorais/paycore/internal/repository/postgres"
	"github.com/cassiomorais/paycore/internal/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	Orchestrator    *paymentApp.Orchestrator
	Registry        *registry.Registry
	Intake          *webhook.Intake
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	CORSConfig      config.CORSConfig
	Webhook         config.WebhookConfig
	RatePerMinute   int
	Logger          zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", SignatureHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.Orchestrator)
	gatewayH := NewGatewayController(deps.Orchestrator, deps.Registry)
	webhookH := NewWebhookController(deps.Intake, deps.Webhook.MaxBodyBytes, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Provider-facing endpoints: never behind idempotency middleware, the
	// transaction log deduplicates.
	r.Post("/payments/webhook/{gateway}", webhookH.Receive)
	r.Get("/payments/return/{gateway}/{id}", webhookH.RedirectReturn)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RatePerMinute > 0 {
			r.Use(customMW.RateLimit(deps.RatePerMinute))
		}
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

		// Gateways
		r.Get("/gateways", gatewayH.List)
		r.Post("/gateways/{id}/client-token", gatewayH.ClientToken)
		r.Get("/gateways/{id}/sources", gatewayH.Sources)
		r.Put("/gateways/{id}/active", gatewayH.SetActive)

		// Payments
		r.With(idempotencyMW).Post("/payments", paymentH.CreatePayment)
		r.Get("/payments/{id}", paymentH.GetPayment)
		r.Get("/payments/{id}/transactions", paymentH.GetTransactions)
		r.Post("/payments/{id}/authorize", paymentH.Authorize)
		r.Post("/payments/{id}/capture", paymentH.Capture)
		r.Post("/payments/{id}/refund", paymentH.Refund)
		r.Post("/payments/{id}/void", paymentH.Void)
		r.Post("/payments/{id}/confirm", paymentH.Confirm)
		r.Post("/payments/{id}/process", paymentH.Process)
		r.Post("/payments/{id}/charge", paymentH.Charge)
		r.Post("/payments/{id}/attach-order", paymentH.AttachOrder)
		r.Post("/payments/{id}/deactivate", paymentH.Deactivate)
	})

	return r
}
