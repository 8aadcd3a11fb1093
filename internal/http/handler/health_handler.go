package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gestionale-crm/crm-api/internal/database"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db      *gorm.DB
	redis   redis.UniversalClient
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a health handler. rdb may be nil when no lock
// backend is configured.
func NewHealthHandler(db *gorm.DB, rdb redis.UniversalClient, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   rdb,
		version: version,
		logger:  logger,
	}
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} domain.HealthStatus
// @Router /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.HealthStatus{
		Status:  "healthy",
		Time:    time.Now().UTC(),
		Version: h.version,
	})
}

// Ready godoc
// @Summary Readiness probe
// @Description Checks the database and, when configured, Redis
// @Tags Health
// @Produce json
// @Success 200 {object} domain.HealthStatus
// @Failure 503 {object} domain.HealthStatus
// @Router /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Error("redis health check failed", zap.Error(err))
			checks["redis"] = "unhealthy"
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	}

	status := domain.HealthStatus{
		Status:  "healthy",
		Checks:  checks,
		Time:    time.Now().UTC(),
		Version: h.version,
	}
	code := http.StatusOK
	if !healthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
