package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"github.com/prefeitura-rio/app-callback/internal/utils"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// ErrorResponse is the body of non-callback error responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports the state of the service and its dependencies
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthHandlers serves the health endpoint
type HealthHandlers struct {
	redis   *redisclient.Client
	monitor *services.ConnectionMonitor
	logger  *logging.SafeLogger
}

// NewHealthHandlers creates a new HealthHandlers instance. redis may be nil
// when no component uses it.
func NewHealthHandlers(redis *redisclient.Client, monitor *services.ConnectionMonitor) *HealthHandlers {
	return &HealthHandlers{
		redis:   redis,
		monitor: monitor,
		logger:  observability.Logger(),
	}
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports Redis reachability and the Zadarma connection status. Only a Redis failure makes the service unhealthy.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c *gin.Context) {
	ctx, span, cleanup := utils.TraceOperation(c.Request.Context(), "HealthCheck", map[string]interface{}{
		"operation": "health_check",
	})
	defer cleanup()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	if h.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()

		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			utils.RecordErrorInSpan(span, err, map[string]interface{}{"service.name": "redis"})
			h.logger.Warn("health check: redis unavailable", zap.Error(err))
			health.Status = "unhealthy"
			health.Services["redis"] = "unhealthy"
		} else {
			health.Services["redis"] = "healthy"
		}
	}

	switch {
	case !h.monitor.Configured():
		health.Services["zadarma"] = "not_configured"
	case h.monitor.Connected():
		health.Services["zadarma"] = "connected"
	default:
		health.Services["zadarma"] = "disconnected"
	}

	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
