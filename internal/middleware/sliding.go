package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/gin-gonic/gin"
)

// SlidingWindow limits each authenticated user (or client IP when
// unauthenticated) to limit hits per window on the wrapped routes, keyed
// under scope via the shared sliding-window limiter.
func SlidingWindow(limiter *services.RateLimiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := strconv.FormatUint(uint64(GetUserID(c)), 10)
		if subject == "0" {
			subject = c.ClientIP()
		}
		key := fmt.Sprintf("%s:%s", scope, subject)

		result, err := limiter.Check(c.Request.Context(), key, limit, window)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("rate limit exceeded, retry after %s", time.Until(result.ResetAt).Round(time.Second)),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
