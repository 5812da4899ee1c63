package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// Health pings every registered dependency.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true
	for _, nc := range h.checks {
		if err := nc.check(ctx); err != nil {
			healthy = false
			checks[nc.name] = "error: " + err.Error()
			logger.Log.Warn("Health check failed", zap.String("service", nc.name), zap.Error(err))
			continue
		}
		checks[nc.name] = "ok"
	}

	code, status := http.StatusOK, "healthy"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "unhealthy"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
