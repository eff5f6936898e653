package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthController answers the probe endpoints. Liveness is unconditional;
// readiness pings postgres and redis because the payment handlers cannot
// serve without either (transactions need the database, payment locks and
// idempotency need redis).
type HealthController struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func NewHealthController(pool *pgxpool.Pool, redis *redis.Client) *HealthController {
	return &HealthController{pool: pool, redis: redis}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	// Short timeout so a wedged dependency fails the probe instead of
	// stalling it.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	ready := true

	if err := h.pool.Ping(ctx); err != nil {
		checks["database"] = "unavailable"
		ready = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unavailable"
		ready = false
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": checks,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
