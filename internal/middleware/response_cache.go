package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseCacheMiddleware caches successful GET responses in store for ttl.
// It is meant for public routes: the key ignores the caller. Responses carry
// X-Cache: HIT or MISS.
func ResponseCacheMiddleware(store cache.Store, name string, ttl time.Duration) gin.HandlerFunc {
	maxAge := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || store == nil {
			c.Next()
			return
		}

		key := generateCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()

		cached, err := store.Get(ctx, key)
		if err == nil {
			metrics.RecordCacheHit(name)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", maxAge)
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		if err != cache.ErrMiss {
			logger.Log.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.RecordCacheMiss(name)

		writer := &cachedResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", maxAge)

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || writer.body.Len() == 0 {
			return
		}
		if err := store.Set(ctx, key, writer.body.String(), ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache", zap.String("key", key), zap.Error(err))
		}
	}
}

func generateCacheKey(path, query string) string {
	if query == "" {
		return "response:" + path
	}
	return "response:" + path + ":" + query
}

// cachedResponseWriter copies the body as it is written.
type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
