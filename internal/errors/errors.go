package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeUpstreamAuth      ErrorType = "upstream_auth"
	ErrorTypeUpstreamRateLimit ErrorType = "upstream_rate_limit"
	ErrorTypeUpstream          ErrorType = "upstream"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeIO                ErrorType = "io"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError reports bad or empty caller input.
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

// NewConfigError reports a deploy-time fault such as a missing model credential.
func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

// NewRateLimitError reports that the local daily quota is exhausted.
func NewRateLimitError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeRateLimit, code, message, cause)
}

// NewUpstreamAuthError reports that the provider rejected the credential.
func NewUpstreamAuthError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeUpstreamAuth, code, message, cause)
}

// NewUpstreamRateLimitError reports that the provider itself throttled the call.
func NewUpstreamRateLimitError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeUpstreamRateLimit, code, message, cause)
}

// NewUpstreamError reports a generic provider failure. Safe to retry with backoff.
func NewUpstreamError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeUpstream, code, message, cause)
}

func NewNotFoundError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// IsUpstream reports whether err is any of the provider-side failures.
func IsUpstream(err error) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	switch appErr.Type {
	case ErrorTypeUpstream, ErrorTypeUpstreamAuth, ErrorTypeUpstreamRateLimit:
		return true
	}
	return false
}

// Common error codes
const (
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable    = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeMissingAPIKey      = "MISSING_API_KEY"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
	ErrCodeDailyLimitExceeded = "DAILY_LIMIT_EXCEEDED"
	ErrCodeUpstreamAuth       = "UPSTREAM_AUTH_FAILED"
	ErrCodeUpstreamThrottled  = "UPSTREAM_RATE_LIMITED"
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"
	ErrCodeAITimeout          = "AI_TIMEOUT"
	ErrCodeAIServiceError     = "AI_SERVICE_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
)
