// Package apierror holds the JSON envelopes used for every 4xx/5xx response.
// Messages here are client-facing; storage errors and stack traces never reach them.
package apierror

// APIError is the body of every error response.
type APIError struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Interno is the generic 500 body. requestID lets the client quote the log line.
func Interno(requestID string) *APIError {
	return &APIError{Detail: "Error interno del servidor", RequestID: requestID}
}

// ValidationError lists the failing field → validator tag pairs.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
