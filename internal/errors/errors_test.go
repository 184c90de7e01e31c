package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorPreservesIdentity(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	wrapped := WrapError(ErrInternal, cause)

	assert.ErrorIs(t, wrapped, ErrInternal)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrWeakPassword, http.StatusBadRequest},
		{ErrActionTokenInvalid, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrAccountLocked, http.StatusUnauthorized},
		{ErrTokenRevoked, http.StatusUnauthorized},
		{ErrIncorrectPassword, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrVerificationRequired, http.StatusForbidden},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrEmailExists, http.StatusConflict},
		{ErrUsernameExists, http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("some stray error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, ToHTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestToHTTPStatusUnwrapsCause(t *testing.T) {
	wrapped := WrapError(ErrEmailExists, fmt.Errorf("duplicate key"))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(wrapped))
}

func TestLockedAccountMessageMatchesBadCredentials(t *testing.T) {
	// Responses must not reveal whether an account exists or is locked.
	assert.Equal(t, ErrInvalidCredentials.Message, ErrAccountLocked.Message)
	assert.NotEqual(t, ErrInvalidCredentials.Code, ErrAccountLocked.Code)
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "", GetErrorMessage(nil))
	assert.Equal(t, ErrUserNotFound.Message, GetErrorMessage(ErrUserNotFound))
	assert.Equal(t, ErrInternal.Message, GetErrorMessage(WrapError(ErrInternal, fmt.Errorf("boom"))))
	assert.Equal(t, "plain", GetErrorMessage(fmt.Errorf("plain")))
}
