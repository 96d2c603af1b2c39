package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an API error.
type ErrorType int

// Error type constants categorize errors for proper handling and retry logic.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConfiguration indicates missing or invalid client configuration,
	// detected before any network call is attempted.
	ErrorTypeConfiguration
	// ErrorTypeNetwork indicates a connection-level failure (DNS, refused,
	// reset) where no HTTP status was received.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates the request weight or order rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates the server rejected the API key,
	// signature, or request timestamp.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side failure.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates the account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
	// ErrorTypeMalformedResponse indicates a 2xx response body that could not
	// be decoded into the expected shape.
	ErrorTypeMalformedResponse
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"CONFIGURATION",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"MALFORMED_RESPONSE",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrNoCredentials is returned when a signed endpoint is called without
	// API credentials configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrMissingAPIKey is returned when the API key is empty.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrMissingSecretKey is returned when the secret key is empty.
	ErrMissingSecretKey = errors.New("secret key is required")
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrStreamClosed is returned when attempting to use a closed stream.
	ErrStreamClosed = errors.New("stream is closed")
	// ErrCircuitBreakerOpen is returned when the circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// APIError represents a structured error from the exchange API or the
// dispatch layer around it. It carries enough context to distinguish
// configuration, authentication, transient, request, and network failures.
type APIError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero when no response was received.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code, verbatim from the response body.
	Code int `json:"code,omitempty"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`

	cause error
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("aster: %s (%d/%d): %s", e.Type, e.StatusCode, e.Code, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("aster: %s (%d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("aster: %s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// NewAPIError creates a new APIError with the specified details.
// The timestamp is automatically set to the current time.
func NewAPIError(errorType ErrorType, statusCode int, message string) *APIError {
	return &APIError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// NewAPIErrorWithCode creates a new APIError carrying the exchange-specific
// error code from the response body.
func NewAPIErrorWithCode(errorType ErrorType, statusCode, code int, message string) *APIError {
	return &APIError{
		Type:       errorType,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// WrapError creates an APIError around an underlying error, preserving it
// for errors.Is/errors.As inspection.
func WrapError(errorType ErrorType, err error, message string) *APIError {
	return &APIError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
		cause:     err,
	}
}

func errorType(err error) (ErrorType, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type, true
	}
	return ErrorTypeUnknown, false
}

// IsConfigurationError returns true if the error was detected before any
// network call was attempted (missing credentials, invalid parameters).
func IsConfigurationError(err error) bool {
	if errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrMissingSecretKey) {
		return true
	}
	t, ok := errorType(err)
	return ok && t == ErrorTypeConfiguration
}

// IsAuthenticationError returns true if the server rejected the API key,
// signature, or timestamp. Authentication errors are never retryable.
func IsAuthenticationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeAuthentication
}

// IsTransient returns true for rate-limited, timed-out, or server-side
// failures that are safe to retry with backoff.
func IsTransient(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrorTypeRateLimit || t == ErrorTypeServerError || t == ErrorTypeTimeout)
}

// IsRequestError returns true for well-formed rejections of a malformed or
// semantically invalid request. Retrying without changing input will not help.
func IsRequestError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrorTypeBadRequest || t == ErrorTypeNotFound ||
		t == ErrorTypeInvalidOrder || t == ErrorTypeInsufficientFunds)
}

// IsNetworkError returns true for connection-level failures where no HTTP
// response was received.
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrorTypeNetwork
}

// ClassifyStatus maps an HTTP status code to an error type following the
// dispatch contract: 401/403 are authentication failures, 429 and 5xx are
// transient, other 4xx are request errors.
func ClassifyStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuthentication
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}
