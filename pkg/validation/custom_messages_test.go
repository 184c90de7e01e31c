package validation

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Email", "email"},
		{"Password", "password"},
		{"RefreshToken", "refresh_token"},
		{"ConfirmPassword", "confirm_password"},
		{"AvatarURL", "avatar_url"},
		{"NewPassword", "new_password"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, toSnakeCase(tt.in))
	}
}

func TestFieldErrorsFromValidator(t *testing.T) {
	type form struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := validator.New().Struct(form{Email: "nope", Password: "x"})
	require.Error(t, err)

	fieldErrors := FieldErrors(err)
	assert.Len(t, fieldErrors, 2)
	assert.Contains(t, fieldErrors, "email")
	assert.Contains(t, fieldErrors, "password")
	assert.NotEmpty(t, fieldErrors["email"])
}

func TestFieldErrorsFromPlainError(t *testing.T) {
	fieldErrors := FieldErrors(fmt.Errorf("unexpected EOF"))
	assert.Equal(t, map[string]string{"body": "request body is malformed"}, fieldErrors)
}
