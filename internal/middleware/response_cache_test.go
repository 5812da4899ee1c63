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

func TestResponseCacheServesSecondRequestFromStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	router := gin.New()
	router.GET("/trending", ResponseCacheMiddleware(cache.NewMemoryStore(), "trending", 5*time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"status": "Success", "n": calls})
	})
	router.GET("/fail", ResponseCacheMiddleware(cache.NewMemoryStore(), "fail", time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"status": "Error"})
	})

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/trending", nil))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/trending", nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "MISS", w1.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", w2.Header().Get("X-Cache"))
	assert.JSONEq(t, w1.Body.String(), w2.Body.String())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 3, calls, "error responses are not cached")
}
