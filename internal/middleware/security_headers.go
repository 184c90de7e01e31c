// middleware/security_headers.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/constants"
)

// SecurityHeaders stamps the standard hardening headers on every response
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range constants.SecurityHeaders {
			c.Writer.Header().Set(name, value)
		}
		c.Next()
	}
}
