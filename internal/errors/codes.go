// Package errors provides the typed error taxonomy for the retrieval
// pipeline. Provider failures are classified so the retry policy can
// distinguish transient faults from terminal ones.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorCode represents a specific error type for pipeline operations.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure. Never retried.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates the provider throttled us.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates a malformed request. Never retried.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTransient indicates a transient network or server fault.
	ErrCodeTransient ErrorCode = "TRANSIENT"
	// ErrCodeServiceUnavailable indicates a dependent service is down.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeNotIndexed indicates a resource id absent from the index.
	ErrCodeNotIndexed ErrorCode = "NOT_INDEXED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// PipelineError is a structured error for pipeline operations.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Convenience constructors.

func Unauthorized(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeUnauthorized, Message: msg}
}

func RateLimitExceeded(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

func InvalidArgument(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeInvalidArgument, Message: msg}
}

func Transient(msg string, cause error) *PipelineError {
	return &PipelineError{Code: ErrCodeTransient, Message: msg, Cause: cause}
}

func ServiceUnavailable(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeServiceUnavailable, Message: msg}
}

func NotIndexed(resourceID string) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeNotIndexed,
		Message: fmt.Sprintf("resource is not indexed: %s", resourceID),
	}
}

// CodeOf returns the pipeline error code for err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsRetryable reports whether the error may succeed on retry.
// Authentication and validation failures are terminal.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeUnauthorized, ErrCodeInvalidArgument, ErrCodeNotIndexed:
		return false
	case ErrCodeRateLimitExceeded, ErrCodeTransient, ErrCodeServiceUnavailable, ErrCodeTimeout:
		return true
	}
	// Unclassified errors are assumed transient.
	return true
}

// ClassifyProviderError maps a go-openai error onto the pipeline
// taxonomy. Non-API errors (dial failures, resets) classify as transient.
func ClassifyProviderError(err error) *PipelineError {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &PipelineError{Code: ErrCodeUnauthorized, Message: "provider rejected credentials", Cause: err}
		case http.StatusTooManyRequests:
			return &PipelineError{Code: ErrCodeRateLimitExceeded, Message: "provider rate limit exceeded", Cause: err}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return &PipelineError{Code: ErrCodeInvalidArgument, Message: "provider rejected request", Cause: err}
		}
		return &PipelineError{Code: ErrCodeTransient, Message: "provider request failed", Cause: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return &PipelineError{Code: ErrCodeUnauthorized, Message: "provider rejected credentials", Cause: err}
		}
		return &PipelineError{Code: ErrCodeTransient, Message: "provider request failed", Cause: err}
	}

	return &PipelineError{Code: ErrCodeTransient, Message: "provider unreachable", Cause: err}
}
