// middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/pkg/logger"
)

// RateLimitStore is the persistence surface behind the sliding window.
type RateLimitStore interface {
	CountInWindow(ctx context.Context, identifier, endpoint string, since time.Time) (int64, error)
	RecordHit(ctx context.Context, identifier, endpoint string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimit counts requests per (identifier, endpoint) inside a sliding
// window backed by the store. The identifier is the authenticated user id
// when available, otherwise the client IP. Count and insert are separate
// statements; the limiter accepts the race rather than serializing requests.
// When the store errors, the request is ALLOWED: losing the limiter must not
// take down login.
func RateLimit(store RateLimitStore, maxRequests int, window, retention time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		identifier := clientIdentifier(c)
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		now := time.Now()

		// Lazy retention pruning; bounded table without a sweeper.
		if _, err := store.DeleteOlderThan(ctx, now.Add(-retention)); err != nil {
			logger.GetLogger().Warn("Rate limit pruning failed",
				zap.Error(err))
		}

		count, err := store.CountInWindow(ctx, identifier, endpoint, now.Add(-window))
		if err != nil {
			logger.GetLogger().Error("Rate limit count failed, allowing request",
				zap.String("identifier", identifier),
				zap.String("endpoint", endpoint),
				zap.Error(err))
			c.Next()
			return
		}

		if count >= int64(maxRequests) {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("identifier", identifier),
				zap.String("endpoint", endpoint),
				zap.String("user_agent", c.GetHeader(constants.HeaderUserAgent)),
				zap.Int64("current_requests", count),
				zap.Int("max_requests", maxRequests),
				zap.Duration("window", window),
			)

			c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(window).Unix()))
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))

			c.JSON(http.StatusTooManyRequests, constants.BuildErrorResponse(
				constants.MsgRateLimited, nil))
			c.Abort()
			return
		}

		if err := store.RecordHit(ctx, identifier, endpoint); err != nil {
			logger.GetLogger().Warn("Rate limit hit not recorded",
				zap.String("identifier", identifier),
				zap.String("endpoint", endpoint),
				zap.Error(err))
		}

		remaining := int64(maxRequests) - count - 1
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(window).Unix()))

		c.Next()
	}
}

func clientIdentifier(c *gin.Context) string {
	if userID, ok := CurrentUserID(c); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return c.ClientIP()
}
