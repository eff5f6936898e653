package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Gateway operation metrics
	GatewayOperationsTotal   *prometheus.CounterVec
	GatewayOperationDuration *prometheus.HistogramVec
	GatewayContractErrors    *prometheus.CounterVec

	// Payment metrics
	TransactionsTotal    *prometheus.CounterVec
	DuplicateEventsTotal *prometheus.CounterVec
	ChargeStatusChanges  *prometheus.CounterVec
	OrdersFullyPaid      prometheus.Counter

	// Webhook metrics
	WebhooksTotal     *prometheus.CounterVec
	WebhookAuthFailed *prometheus.CounterVec
	RedirectReturns   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec

	// Worker metrics
	WorkerMessagesProcessed  *prometheus.CounterVec
	WorkerProcessingDuration *prometheus.HistogramVec
	OutboxPending            prometheus.Gauge
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		GatewayOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_operations_total",
				Help:      "Total number of gateway calls by gateway, operation and result",
			},
			[]string{"gateway", "operation", "result"},
		),
		GatewayOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_operation_duration_seconds",
				Help:      "Gateway call duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"gateway", "operation"},
		),
		GatewayContractErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_contract_errors_total",
				Help:      "Responses rejected for violating the gateway contract",
			},
			[]string{"gateway", "reason"},
		),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Transactions recorded by kind and success",
			},
			[]string{"kind", "success"},
		),
		DuplicateEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_events_total",
				Help:      "Gateway events deduplicated against existing transactions",
			},
			[]string{"kind"},
		),
		ChargeStatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "charge_status_changes_total",
				Help:      "Payment charge status transitions",
			},
			[]string{"from", "to"},
		),
		OrdersFullyPaid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_fully_paid_total",
				Help:      "Orders that crossed into fully paid",
			},
		),
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Webhook notifications by gateway and outcome",
			},
			[]string{"gateway", "outcome"},
		),
		WebhookAuthFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_auth_failed_total",
				Help:      "Webhook notifications rejected at authentication",
			},
			[]string{"gateway"},
		),
		RedirectReturns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redirect_returns_total",
				Help:      "Shopper redirect returns by gateway and result",
			},
			[]string{"gateway", "result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		CircuitBreakerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_requests_total",
				Help:      "Total number of circuit breaker requests",
			},
			[]string{"name", "result"},
		),
		WorkerMessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_messages_processed_total",
				Help:      "Total number of worker messages processed",
			},
			[]string{"stream", "status"},
		),
		WorkerProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_processing_duration_seconds",
				Help:      "Worker message processing duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stream"},
		),
		OutboxPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "outbox_pending_entries",
				Help:      "Outbox entries waiting for dispatch",
			},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.GatewayOperationsTotal,
		m.GatewayOperationDuration,
		m.GatewayContractErrors,
		m.TransactionsTotal,
		m.DuplicateEventsTotal,
		m.ChargeStatusChanges,
		m.OrdersFullyPaid,
		m.WebhooksTotal,
		m.WebhookAuthFailed,
		m.RedirectReturns,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerRequests,
		m.WorkerMessagesProcessed,
		m.WorkerProcessingDuration,
		m.OutboxPending,
	)

	return m
}
