// Package apierror provides the response envelopes for every 4xx/5xx answer.
// All errors returned to clients go through this package so that internal
// details (stack traces, DB errors) never leak.
package apierror

// APIError is the envelope for domain errors.
type APIError struct {
	Message string `json:"message"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError wraps every field error found in a request.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidation(fields ...FieldError) *ValidationError {
	return &ValidationError{Errors: fields}
}

// Field is shorthand for a single-field validation failure.
func Field(field, msg string) *ValidationError {
	return NewValidation(FieldError{Field: field, Message: msg})
}

// AuthError is the envelope used by the authorization gate. RequiredRoles and
// UserRole are only set when a valid identity lacks the required role.
type AuthError struct {
	Error         string   `json:"error"`
	RequiredRoles []string `json:"requiredRoles,omitempty"`
	UserRole      string   `json:"userRole,omitempty"`
}

func NewAuth(msg string) *AuthError {
	return &AuthError{Error: msg}
}
