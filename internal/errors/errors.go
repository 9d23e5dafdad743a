package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error with context
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	HTTPCode int    `json:"-"`
	Cause    error  `json:"-"`
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

// Common error codes
const (
	CodeClientNotFound      = "CLIENT_NOT_FOUND"
	CodeCodeExpired         = "CODE_EXPIRED"
	CodeInvalidCode         = "INVALID_CODE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeUpstreamFetchFailed = "UPSTREAM_FETCH_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeCacheUnavailable    = "CACHE_UNAVAILABLE"
)

// Messages surfaced to API callers
const (
	MsgClientNotFound = "Client Not Found"
	MsgCodeExpired    = "Code Expired"
	MsgInvalidCode    = "Invalid Code"
	MsgUnauthorized   = "Authentication Failed! Invalid Credentials!"
)

func ClientNotFoundError(cause error) *AppError {
	return &AppError{
		Code:     CodeClientNotFound,
		Message:  MsgClientNotFound,
		HTTPCode: http.StatusBadRequest,
		Cause:    cause,
	}
}

func CodeExpiredError(cause error) *AppError {
	return &AppError{
		Code:     CodeCodeExpired,
		Message:  MsgCodeExpired,
		HTTPCode: http.StatusBadRequest,
		Cause:    cause,
	}
}

func InvalidCodeError(cause error) *AppError {
	return &AppError{
		Code:     CodeInvalidCode,
		Message:  MsgInvalidCode,
		HTTPCode: http.StatusBadRequest,
		Cause:    cause,
	}
}

func UnauthorizedError(cause error) *AppError {
	return &AppError{
		Code:     CodeUnauthorized,
		Message:  MsgUnauthorized,
		HTTPCode: http.StatusUnauthorized,
		Cause:    cause,
	}
}

func ValidationError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeValidationFailed,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
		Cause:    cause,
	}
}

// UpstreamFetchError is returned when the news provider could not be reached
// or answered with nothing usable.
func UpstreamFetchError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeUpstreamFetchFailed,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
		Cause:    cause,
	}
}

func NotFoundError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeNotFound,
		Message:  message,
		HTTPCode: http.StatusNotFound,
		Cause:    cause,
	}
}

func MethodNotAllowedError(message string) *AppError {
	return &AppError{
		Code:     CodeMethodNotAllowed,
		Message:  message,
		HTTPCode: http.StatusMethodNotAllowed,
	}
}

func RateLimitedError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeRateLimited,
		Message:  message,
		HTTPCode: http.StatusTooManyRequests,
		Cause:    cause,
	}
}

func InternalError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeInternalError,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeDatabaseError,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

func CacheUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Code:     CodeCacheUnavailable,
		Message:  message,
		HTTPCode: http.StatusServiceUnavailable,
		Cause:    cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the original code but update message
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:     appErr.Code,
			Message:  fmt.Sprintf("%s: %s", message, appErr.Message),
			Details:  appErr.Details,
			HTTPCode: appErr.HTTPCode,
			Cause:    appErr.Cause,
		}
	}

	httpCode := http.StatusInternalServerError
	switch code {
	case CodeClientNotFound, CodeCodeExpired, CodeInvalidCode, CodeValidationFailed, CodeUpstreamFetchFailed:
		httpCode = http.StatusBadRequest
	case CodeUnauthorized:
		httpCode = http.StatusUnauthorized
	case CodeNotFound:
		httpCode = http.StatusNotFound
	case CodeMethodNotAllowed:
		httpCode = http.StatusMethodNotAllowed
	case CodeRateLimited:
		httpCode = http.StatusTooManyRequests
	case CodeCacheUnavailable:
		httpCode = http.StatusServiceUnavailable
	}

	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
		Cause:    err,
	}
}

// IsType checks if an error is of a specific type/code
func IsType(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}
