// api/middleware/rate_limiter.go

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/cache"
	logger "github.com/arbiterhq/arbiter/api/logging"
)

// RateLimiter enforces the fixed-window limit per subject and endpoint. The
// subject is the authenticated user when auth has already run, otherwise
// the client IP. A degraded cache lets requests through.
func RateLimiter(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if userID, exists := c.Get("userID"); exists {
			subject = userID.(string)
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		decision := limiter.Allow(c.Request.Context(), subject, endpoint)

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter
			if retryAfter <= 0 {
				retryAfter = limiter.Window()
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))

			logger.Warn("Rate limit exceeded",
				zap.String("subject", subject),
				zap.String("endpoint", endpoint),
				zap.Int("limit", decision.Limit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "Rate limit exceeded. Please try again later."})
			return
		}

		c.Next()
	}
}
