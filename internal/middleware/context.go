package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coreconnect/backend/internal/constants"
	ctxutil "github.com/coreconnect/backend/pkg/context"
)

// RequestContext seeds the request context with a request id, client
// metadata, and a start time, so downstream log lines correlate.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, ctxutil.RequestIDKey, requestID)
		ctx = context.WithValue(ctx, ctxutil.ClientIPKey, c.ClientIP())
		ctx = context.WithValue(ctx, ctxutil.UserAgentKey, c.Request.UserAgent())
		ctx = context.WithValue(ctx, ctxutil.StartTimeKey, time.Now())

		c.Header(constants.HeaderXRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestTimeout bounds each request with a deadline
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserContext copies the authenticated user onto the request context so
// repository and service log lines carry the subject. Runs after RequireAuth.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if userID, ok := CurrentUserID(c); ok {
			ctx = context.WithValue(ctx, ctxutil.UserIDKey, userID)
		}
		if email := c.GetString(ContextUserEmail); email != "" {
			ctx = context.WithValue(ctx, ctxutil.UserEmailKey, email)
		}
		if role := c.GetString(ContextUserRole); role != "" {
			ctx = context.WithValue(ctx, ctxutil.UserRoleKey, role)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
