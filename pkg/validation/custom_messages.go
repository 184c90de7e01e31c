package validation

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldErrors converts a gin binding error into a field-to-message map for
// the error envelope. Non-validator errors get a single body-level entry.
func FieldErrors(err error) map[string]string {
	fieldErrors := map[string]string{}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			field := toSnakeCase(fe.Field())
			fieldErrors[field] = DefaultMessage(field, fe.Tag())
		}
		return fieldErrors
	}

	fieldErrors["body"] = "request body is malformed"
	return fieldErrors
}

func toSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Break before an upper rune that starts a new word; runs of
			// uppercase (URL, TTL) stay together.
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
