package utils

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
)

// FieldError is a single validation failure, reported per field so the
// client can highlight the offending input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is an operational error: expected, user-facing, carrying an
// HTTP status. Anything that is not an *APIError is treated as a
// programming error and rendered as a generic 500.
type APIError struct {
	StatusCode int
	Status     string // "failed" for 4xx, "error" for 5xx
	Message    string
	Errors     []FieldError // non-nil only for validation failures
	stack      string
}

func (e *APIError) Error() string { return e.Message }

// Stack returns the stack captured when the error was created.
// Exposed only in development responses.
func (e *APIError) Stack() string { return e.stack }

func NewAPIError(message string, statusCode int) *APIError {
	status := "error"
	if strings.HasPrefix(fmt.Sprintf("%d", statusCode), "4") {
		status = "failed"
	}
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Message:    message,
		stack:      string(debug.Stack()),
	}
}

// NewValidationError bundles field errors into a single 400 response.
func NewValidationError(errs []FieldError) *APIError {
	e := NewAPIError("Validation failed. Please check the input fields.", http.StatusBadRequest)
	e.Errors = errs
	return e
}
