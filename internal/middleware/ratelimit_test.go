package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(store cache.Store, cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(store, cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func get(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	router := newLimitedRouter(cache.NewMemoryStore(), RateLimitConfig{Name: "t", Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		w := get(router, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
	w := get(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "4th request should be rate limited")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), `"status":"Error"`)
}

func TestRateLimiterDifferentClients(t *testing.T) {
	router := newLimitedRouter(cache.NewMemoryStore(), RateLimitConfig{Name: "t", Limit: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, get(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "10.0.0.1:2").Code)
	assert.Equal(t, http.StatusOK, get(router, "10.0.0.2:1").Code, "other clients have their own window")
}

func TestRateLimiterDisabled(t *testing.T) {
	router := newLimitedRouter(cache.NewMemoryStore(), RateLimitConfig{Name: "t", Limit: 0, Window: time.Minute})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(router, "10.0.0.1:1").Code)
	}
}
