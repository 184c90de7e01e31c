package constants

// Standard Response Field Keys
const (
	ResponseFieldStatus  = "status"
	ResponseFieldMessage = "message"
	ResponseFieldData    = "data"
	ResponseFieldErrors  = "errors"
)

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BuildSuccessResponse builds the success envelope shared by all endpoints.
func BuildSuccessResponse(message string, data any) map[string]any {
	response := map[string]any{
		ResponseFieldStatus:  StatusSuccess,
		ResponseFieldMessage: message,
	}

	if data != nil {
		response[ResponseFieldData] = data
	}

	return response
}

// BuildErrorResponse builds the error envelope shared by all endpoints.
// errors maps field names to a human-readable detail.
func BuildErrorResponse(message string, errors map[string]string) map[string]any {
	response := map[string]any{
		ResponseFieldStatus:  StatusError,
		ResponseFieldMessage: message,
	}

	if len(errors) > 0 {
		response[ResponseFieldErrors] = errors
	}

	return response
}

// BuildFieldError is shorthand for a single-field error map.
func BuildFieldError(field, detail string) map[string]string {
	return map[string]string{field: detail}
}
