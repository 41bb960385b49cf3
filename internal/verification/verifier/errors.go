package verifier

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for verifier calls. The
// poller decides between "keep polling" and "give up" from the category alone.
type ErrorCategory string

const (
	ErrorTimeout          ErrorCategory = "timeout"
	ErrorBadData          ErrorCategory = "bad_data"
	ErrorAuthentication   ErrorCategory = "authentication"
	ErrorProviderOutage   ErrorCategory = "provider_outage"
	ErrorContractMismatch ErrorCategory = "contract_mismatch"
	ErrorNotFound         ErrorCategory = "not_found"
	ErrorRateLimited      ErrorCategory = "rate_limited"
	ErrorCanceled         ErrorCategory = "canceled"
	ErrorInternal         ErrorCategory = "internal"
)

// Error wraps a failed verifier call.
type Error struct {
	Category   ErrorCategory
	Operation  string
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool // timeout, outage and rate-limited
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("verifier %s [%s]: %s", e.Operation, e.Category, e.Message)
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError builds an Error and derives Retryable from the category.
func NewError(category ErrorCategory, operation, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
		Retryable: category == ErrorTimeout ||
			category == ErrorProviderOutage ||
			category == ErrorRateLimited,
	}
}

func newStatusError(category ErrorCategory, operation string, status int, message string) *Error {
	e := NewError(category, operation, message, nil)
	e.StatusCode = status
	return e
}

// IsRetryable reports whether err is a transient verifier failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// CategoryOf extracts the category, defaulting to ErrorInternal.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrorInternal
}
