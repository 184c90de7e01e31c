package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderRetryAfter    = "Retry-After"
)

// Security Headers applied to every response
var SecurityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'self'",
}

// Common HTTP Error Messages
const (
	MsgUnauthorized      = "Authentication required"
	MsgInvalidToken      = "Token is invalid or expired"
	MsgForbidden         = "Access forbidden"
	MsgNotFound          = "Resource not found"
	MsgBadRequest        = "Invalid request"
	MsgInternalError     = "Internal server error"
	MsgRateLimited       = "Rate limit exceeded. Please try again later."
	MsgInvalidCredential = "Invalid email or password"
	MsgGenericReset      = "If an account exists for that email, a password reset link has been sent"
)
