package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	// Network errors
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeTimeout ErrorType = "timeout"

	// Authentication errors
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeSessionExpired ErrorType = "session_expired"

	// Request errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeRateLimit  ErrorType = "rate_limit"

	// Server errors
	ErrorTypeServer      ErrorType = "server"
	ErrorTypeUnavailable ErrorType = "unavailable"

	ErrorTypeUnknown ErrorType = "unknown"
)

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// WithSuggestion adds a helpful suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLI error
func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NotLoggedInError is returned before any request that needs a token
func NotLoggedInError() *CLIError {
	return NewCLIError(ErrorTypeAuth, "You are not logged in", nil).
		WithSuggestion("Run 'chronically login' first.")
}

// SessionExpiredError creates a session expired error
func SessionExpiredError() *CLIError {
	return NewCLIError(ErrorTypeSessionExpired, "Your session has expired", nil).
		WithSuggestion("Run 'chronically login' to get a new token.")
}

// ValidationError creates a validation error
func ValidationError(field, reason string) *CLIError {
	return NewCLIError(ErrorTypeValidation, fmt.Sprintf("Validation error: %s - %s", field, reason), nil)
}

// statusError is satisfied by API errors that carry an HTTP status.
type statusError interface {
	error
	HTTPStatus() int
}

// FromStatus classifies an HTTP failure. message is the server's message.
func FromStatus(status int, message string, cause error) *CLIError {
	if message == "" {
		message = http.StatusText(status)
	}
	var err *CLIError
	switch {
	case status == http.StatusUnauthorized:
		err = NewCLIError(ErrorTypeAuth, message, cause).
			WithSuggestion("Your token was rejected. Run 'chronically login' again.")
	case status == http.StatusForbidden:
		err = NewCLIError(ErrorTypeForbidden, message, cause).
			WithSuggestion("The account may be deactivated, or the request names another user.")
	case status == http.StatusNotFound:
		err = NewCLIError(ErrorTypeNotFound, message, cause)
	case status == http.StatusConflict:
		err = NewCLIError(ErrorTypeConflict, message, cause)
	case status == http.StatusTooManyRequests:
		err = NewCLIError(ErrorTypeRateLimit, message, cause).
			WithSuggestion("Wait a minute before trying again.")
	case status == http.StatusServiceUnavailable:
		err = NewCLIError(ErrorTypeUnavailable, message, cause).
			WithSuggestion("The server is temporarily unavailable. Try again shortly.")
	case status >= 500:
		err = NewCLIError(ErrorTypeServer, message, cause).
			WithSuggestion("The server encountered an error. Try again in a few moments.")
	case status >= 400:
		err = NewCLIError(ErrorTypeValidation, message, cause)
	default:
		err = NewCLIError(ErrorTypeUnknown, message, cause)
	}
	err.StatusCode = status
	return err
}

// CategorizeError converts a standard error into a CLIError
func CategorizeError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	var se statusError
	if errors.As(err, &se) {
		return FromStatus(se.HTTPStatus(), se.Error(), err)
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"), strings.Contains(errMsg, "no such host"):
		return NewCLIError(ErrorTypeNetwork, "Could not connect to server", err).
			WithSuggestion("Check api.base_url in your config and make sure the server is running.")
	case strings.Contains(errMsg, "timeout"), strings.Contains(errMsg, "context deadline exceeded"):
		return NewCLIError(ErrorTypeTimeout, "Request timed out", err).
			WithSuggestion("The server is taking too long to respond. Try again in a moment.")
	default:
		return NewCLIError(ErrorTypeUnknown, errMsg, err)
	}
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := CategorizeError(err)
	var sb strings.Builder

	sb.WriteString("❌ Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("💡 ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
