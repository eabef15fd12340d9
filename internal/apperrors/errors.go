package apperrors

import (
	"errors"
	"fmt"
)

// RetryableError indicates an error that might be resolved by retrying.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps the given error as a RetryableError, adding a message.
// It uses fmt.Errorf with %w to maintain the error chain.
func NewRetryable(err error, message string, args ...interface{}) error {
	// Ensure the original error is appended to the format arguments for %w
	format := message + ": %w"
	// Prepend formatted message args, then append the error itself
	allArgs := append(args, err)
	return &RetryableError{Err: fmt.Errorf(format, allArgs...)}
}

// FatalError indicates an error that is unlikely to be resolved by retrying.
type FatalError struct {
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps the given error as a FatalError, adding a message.
// It uses fmt.Errorf with %w to maintain the error chain.
func NewFatal(err error, message string, args ...interface{}) error {
	// Ensure the original error is appended to the format arguments for %w
	format := message + ": %w"
	// Prepend formatted message args, then append the error itself
	allArgs := append(args, err)
	return &FatalError{Err: fmt.Errorf(format, allArgs...)}
}

// --- Standard Error Definitions ---

// Sentinel errors for the insight service. Check them with errors.Is; the
// ingestion path may further wrap them in RetryableError or FatalError.
var (
	// ErrNotFound indicates a customer (or other record) does not exist for the owner.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates a payload failed struct validation.
	ErrValidation = errors.New("validation failed")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
	// ErrNATS indicates a general NATS communication error.
	ErrNATS = errors.New("nats communication error")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate resource")
	// ErrBadRequest indicates a malformed request from the caller.
	ErrBadRequest = errors.New("bad request")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timeout")
	// ErrRateLimited indicates an operation was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrEnrichmentUnavailable covers network failures, timeouts and local quota denial
	// when calling the text-generation service.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	// ErrEnrichmentRejected indicates the text-generation service answered with a non-success status.
	ErrEnrichmentRejected = errors.New("enrichment rejected")
	// ErrEnrichmentInvalidResponse indicates a success status without extractable text.
	ErrEnrichmentInvalidResponse = errors.New("enrichment response invalid")
	// ErrEnrichmentParse indicates no JSON object could be parsed out of the generated text.
	ErrEnrichmentParse = errors.New("enrichment parse failed")
)

// --- Helper functions for checking ---

// IsRetryable checks if the error is a RetryableError or wraps one.
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// IsFatal checks if the error is a FatalError or wraps one.
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

// IsNotFoundError checks if the error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDatabaseError checks if the error is or wraps ErrDatabase.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsBadRequestError checks if the error is or wraps ErrBadRequest.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsEnrichmentError reports whether err belongs to the enrichment family.
func IsEnrichmentError(err error) bool {
	return errors.Is(err, ErrEnrichmentUnavailable) ||
		errors.Is(err, ErrEnrichmentRejected) ||
		errors.Is(err, ErrEnrichmentInvalidResponse) ||
		errors.Is(err, ErrEnrichmentParse)
}

// EnrichmentReason returns a short label for an enrichment failure, used for metrics and logs.
func EnrichmentReason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEnrichmentUnavailable):
		return "unavailable"
	case errors.Is(err, ErrEnrichmentRejected):
		return "rejected"
	case errors.Is(err, ErrEnrichmentInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrEnrichmentParse):
		return "parse"
	default:
		return "unknown"
	}
}

// HTTPStatus maps an application error onto a transport status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return 400
	case errors.Is(err, ErrTimeout):
		return 504
	case errors.Is(err, ErrRateLimited):
		return 429
	default:
		return 500
	}
}
