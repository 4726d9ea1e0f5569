// api/middleware/rate_limiter_test.go
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/middleware"
)

func newLimitedRouter(limiter *cache.RateLimiter, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{}
	if pre != nil {
		handlers = append(handlers, pre)
	}
	handlers = append(handlers, middleware.RateLimiter(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/ping", handlers...)
	return r
}

func TestRateLimiterMiddleware(t *testing.T) {
	t.Run("CountsDownThenDenies", func(t *testing.T) {
		limiter := cache.NewRateLimiter(cache.NewMemoryStore(), cache.NewKeyScheme("v1"), 3, time.Minute)
		router := newLimitedRouter(limiter, nil)

		for i, wantRemaining := range []string{"2", "1", "0"} {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
			assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, wantRemaining, w.Header().Get("X-RateLimit-Remaining"))
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "Rate limit exceeded. Please try again later.")
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("AuthenticatedSubjectSeparateFromIP", func(t *testing.T) {
		limiter := cache.NewRateLimiter(cache.NewMemoryStore(), cache.NewKeyScheme("v1"), 1, time.Minute)

		anon := newLimitedRouter(limiter, nil)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		anon.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		// The anonymous bucket is spent, but a logged-in user has their own.
		authed := newLimitedRouter(limiter, func(c *gin.Context) {
			c.Set("userID", "user-1")
			c.Next()
		})
		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/ping", nil)
		authed.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/ping", nil)
		anon.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("DegradedStoreFailsOpen", func(t *testing.T) {
		limiter := cache.NewRateLimiter(cache.NewRedisStore(nil), cache.NewKeyScheme("v1"), 1, time.Minute)
		router := newLimitedRouter(limiter, nil)

		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass without a cache", i+1)
		}
	})
}
