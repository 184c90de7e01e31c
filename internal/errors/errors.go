package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match wrapped domain errors by code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound    = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists     = NewDomainError("EMAIL_EXISTS", "user with this email already exists")
	ErrUsernameExists  = NewDomainError("USERNAME_EXISTS", "username already taken")
	ErrAccountInactive = NewDomainError("ACCOUNT_INACTIVE", "account is deactivated")

	// Authentication errors
	ErrInvalidCredentials  = NewDomainError("INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountLocked       = NewDomainError("ACCOUNT_LOCKED", "invalid email or password")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "authentication required")
	ErrInvalidToken        = NewDomainError("INVALID_TOKEN", "token is invalid or expired")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrWrongTokenType      = NewDomainError("WRONG_TOKEN_TYPE", "invalid token type")
	ErrTokenRevoked        = NewDomainError("TOKEN_REVOKED", "refresh token is invalid or revoked")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "invalid refresh token")

	// Authorization errors
	ErrForbidden            = NewDomainError("FORBIDDEN", "insufficient permissions")
	ErrVerificationRequired = NewDomainError("VERIFICATION_REQUIRED", "email verification required")

	// Validation errors
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "invalid input")
	ErrWeakPassword       = NewDomainError("WEAK_PASSWORD", "password does not meet security requirements")
	ErrPasswordMismatch   = NewDomainError("PASSWORD_MISMATCH", "new password and confirmation do not match")
	ErrIncorrectPassword  = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")
	ErrActionTokenInvalid = NewDomainError("ACTION_TOKEN_INVALID", "token is invalid, expired, or already used")

	// Throttling errors
	ErrRateLimited = NewDomainError("RATE_LIMITED", "rate limit exceeded")

	// System errors
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes.
// This should only be used in the handler/presentation layer.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "INVALID_INPUT", "WEAK_PASSWORD", "PASSWORD_MISMATCH", "ACTION_TOKEN_INVALID":
		return http.StatusBadRequest

	// 401 Unauthorized. ACCOUNT_LOCKED deliberately maps here with the same
	// client-facing message as INVALID_CREDENTIALS so responses don't reveal
	// whether an account exists or is locked.
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "ACCOUNT_LOCKED", "ACCOUNT_INACTIVE",
		"INVALID_TOKEN", "TOKEN_EXPIRED", "WRONG_TOKEN_TYPE", "TOKEN_REVOKED",
		"INVALID_REFRESH_TOKEN", "INCORRECT_PASSWORD":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN", "VERIFICATION_REQUIRED":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS", "USERNAME_EXISTS":
		return http.StatusConflict

	// 429 Too Many Requests
	case "RATE_LIMITED":
		return http.StatusTooManyRequests

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the client-facing error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
