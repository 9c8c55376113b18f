package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/hrygo/veida/plugin/review"
)

// ErrorCode represents a specific error type returned by the API.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested resource does not exist or is not owned by the caller.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a uniqueness conflict.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeServiceUnavailable indicates an optional collaborator is not configured.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeGenerationFailed indicates the content pipeline failed.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodePersistenceFailed indicates a store write failed.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal is the fallback code.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeRateLimitExceeded:  http.StatusTooManyRequests,
	ErrCodeInvalidArgument:    http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeGenerationFailed:   http.StatusBadGateway,
	ErrCodePersistenceFailed:  http.StatusInternalServerError,
	ErrCodeContextCanceled:    499,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatus returns the status code responses with this code are sent with.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := httpStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// APIError represents a structured error returned by the API.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *APIError) WithContext(key string, value any) *APIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *APIError) GetCode() ErrorCode {
	return e.Code
}

// Body is the JSON error envelope.
type Body struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Body returns the JSON envelope of the error. The cause is never exposed.
func (e *APIError) Body() Body {
	return Body{Code: e.Code, Message: e.Message, Details: e.Context}
}

// Convenience constructors for common error types.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error for the named resource.
func NotFound(resource string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// AlreadyExists creates a conflict error.
func AlreadyExists(msg string) *APIError {
	return &APIError{Code: ErrCodeAlreadyExists, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *APIError {
	return &APIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// GenerationFailed creates a content generation error.
func GenerationFailed(msg string, cause error) *APIError {
	return &APIError{Code: ErrCodeGenerationFailed, Message: msg, Cause: cause}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *APIError {
	return &APIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *APIError {
	return &APIError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an APIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return defaultCode
}

// FromError converts any error into an APIError. Review sentinels and context
// errors get their own codes; anything else is internal.
func FromError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, review.ErrInvalidDateFormat):
		return Wrap(err, ErrCodeInvalidArgument, "invalid exam date")
	case stderrors.Is(err, review.ErrFlashcardNotFound):
		return Wrap(err, ErrCodeNotFound, "flashcard not found")
	case stderrors.Is(err, review.ErrCourseNotFound):
		return Wrap(err, ErrCodeNotFound, "course not found")
	case stderrors.Is(err, review.ErrPersistenceWriteFailed):
		return Wrap(err, ErrCodePersistenceFailed, "failed to save study progress")
	case stderrors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: ErrCodeTimeout, Message: "operation timed out", Cause: err}
	case stderrors.Is(err, context.Canceled):
		return ContextCanceled(err)
	default:
		return Wrap(err, ErrCodeInternal, "internal error")
	}
}
