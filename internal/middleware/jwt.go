package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/service"
	"github.com/coreconnect/backend/pkg/logger"
)

// Gin context keys set by the auth middleware.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "email"
	ContextUserRole  = "role"
)

type JWTMiddleware struct {
	tokens *service.TokenService
	users  service.UserStore
}

func NewJWTMiddleware(tokens *service.TokenService, users service.UserStore) *JWTMiddleware {
	return &JWTMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// RequireAuth validates the bearer access token, checks the account is
// still active, and sets user info on the gin context.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortUnauthorized(c)
			return
		}

		claims, err := m.tokens.Verify(tokenString, constants.TokenTypeAccess)
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired access token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			abortUnauthorized(c)
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.GetLogger().Warn("Token subject not found",
				zap.String("path", c.Request.URL.Path),
				zap.Uint("user_id", claims.UserID),
				zap.Error(err))
			abortUnauthorized(c)
			return
		}
		if !user.IsActive {
			logger.GetLogger().Warn("Token presented for deactivated account",
				zap.Uint("user_id", user.ID))
			abortUnauthorized(c)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserRole, user.Role)

		c.Next()
	}
}

// RequireVerified gates endpoints behind email verification. Must run after
// RequireAuth.
func (m *JWTMiddleware) RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		if !user.IsVerified {
			c.JSON(http.StatusForbidden, constants.BuildErrorResponse(
				"Email verification required", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole gates endpoints behind a role. Must run after RequireAuth.
func (m *JWTMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		currentRole := c.GetString(ContextUserRole)
		if currentRole != role {
			logger.GetLogger().Warn("Role check failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("required_role", role),
				zap.String("current_role", currentRole))
			c.JSON(http.StatusForbidden, constants.BuildErrorResponse(
				constants.MsgForbidden, nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth sets user info when a valid token is present but never aborts
func (m *JWTMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := m.tokens.Verify(tokenString, constants.TokenTypeAccess)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)

		c.Next()
	}
}

// CurrentUserID reads the authenticated user id set by RequireAuth
func CurrentUserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != constants.TokenTypeBearer {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
		constants.MsgUnauthorized, nil))
	c.Abort()
}
