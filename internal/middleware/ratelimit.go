package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/errors"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name prefixes the counter keys so limiters don't share windows.
	Name string
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the client identity (client IP by default).
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig allows rpm requests per minute per client IP.
func DefaultRateLimitConfig(rpm int) RateLimitConfig {
	return RateLimitConfig{
		Name:   "default",
		Limit:  rpm,
		Window: time.Minute,
	}
}

// AuthRateLimitConfig is the stricter limit for login and sign-up routes.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:   "auth",
		Limit:  10,
		Window: time.Minute,
	}
}

// UploadRateLimitConfig limits profile picture uploads.
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:   "upload",
		Limit:  20,
		Window: time.Minute,
	}
}

// RateLimit counts requests per client in fixed windows held in store, so
// limits are shared across instances when store is Redis. A store failure
// rejects the request with 503 rather than letting traffic through unmetered.
func RateLimit(store cache.Store, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		if cfg.Limit <= 0 {
			c.Next()
			return
		}
		client := cfg.KeyFunc(c)
		key := "rate_limit:" + cfg.Name + ":" + client

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		count, err := store.IncrWindow(ctx, key, cfg.Window)
		cancel()
		if err != nil {
			logger.ErrorWithFields("Rate limit check failed", err, logger.WithIP(client))
			util.RespondWithAPIError(c, errors.ServiceUnavailable("rate limiter"))
			return
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			metrics.RecordRateLimitExceeded(c.FullPath())
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(client),
				zap.String("limiter", cfg.Name),
				zap.Int64("count", count),
			)
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			util.RespondWithAPIError(c, errors.RateLimited(""))
			return
		}
		c.Next()
	}
}
