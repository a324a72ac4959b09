package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateCounter counts hits per subject inside a fixed window.
type RateCounter interface {
	IncrementRateLimit(ctx context.Context, scope, subject string, window time.Duration) (int64, error)
}

// RateLimit allows at most max requests per subject and window for the scope.
// The subject is the authenticated user, or the client IP for anonymous calls.
// When the counter backend fails the request is let through.
func RateLimit(counter RateCounter, scope string, max int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || max <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if p, ok := GetPrincipal(c); ok {
			subject = p.UserID
		}

		hits, err := counter.IncrementRateLimit(c.Request.Context(), scope, subject, window)
		if err != nil {
			log.Warn("rate limit counter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(max) - hits
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if hits > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}
