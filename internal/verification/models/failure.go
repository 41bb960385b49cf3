package models

import (
	"errors"
	"fmt"

	dErrors "talentmatch/pkg/domain-errors"
)

// FailureKind classifies why a verification attempt did not reach verified.
type FailureKind string

const (
	// FailureRequestInitiation: the verifier could not create a request. The
	// session stays idle and the caller may retry immediately.
	FailureRequestInitiation FailureKind = "request_initiation_failed"
	// FailurePollTransient: one poll iteration failed. Absorbed by the poller
	// until the attempt budget runs out.
	FailurePollTransient FailureKind = "poll_transient_error"
	// FailureTimeout: the poll budget was exhausted without success.
	FailureTimeout FailureKind = "verification_timeout"
	// FailurePollFatal: the verifier rejected the poll outright.
	FailurePollFatal FailureKind = "poll_fatal_error"
	// FailureStaleResponse: a response arrived for an attempt that was
	// cancelled or replaced. Never shown to users.
	FailureStaleResponse FailureKind = "stale_response_discarded"
	// FailureResultDelivery: the attempt verified but its result consumer
	// rejected the result, e.g. the résumé it belongs to was deleted.
	FailureResultDelivery FailureKind = "result_delivery_failed"
)

// Failure carries the kind, the transaction concerned and the cause.
type Failure struct {
	Kind          FailureKind
	TransactionID TransactionID
	Err           error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrRequestInitiationFailed = &Failure{Kind: FailureRequestInitiation}
	ErrPollTransient           = &Failure{Kind: FailurePollTransient}
	ErrVerificationTimeout     = &Failure{Kind: FailureTimeout}
	ErrPollFatal               = &Failure{Kind: FailurePollFatal}
	ErrStaleResponseDiscarded  = &Failure{Kind: FailureStaleResponse}
	ErrResultDelivery          = &Failure{Kind: FailureResultDelivery}
)

// NewFailure builds a failure of the given kind.
func NewFailure(kind FailureKind, txID TransactionID, err error) *Failure {
	return &Failure{Kind: kind, TransactionID: txID, Err: err}
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.TransactionID != "" {
		msg = fmt.Sprintf("%s: transaction %s", msg, f.TransactionID)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches another *Failure by kind.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return f.Kind == t.Kind
}

// Code maps the failure to a transport-agnostic domain code.
func (f *Failure) Code() dErrors.Code {
	switch f.Kind {
	case FailureTimeout:
		return dErrors.CodeTimeout
	case FailureRequestInitiation, FailurePollTransient, FailurePollFatal:
		return dErrors.CodeUpstream
	case FailureStaleResponse:
		return dErrors.CodeConflict
	default:
		return dErrors.CodeInternal
	}
}

// ToDomainError converts a failure chain into a coded domain error so HTTP
// handlers can render it. Other errors pass through unchanged.
func ToDomainError(err error) error {
	var f *Failure
	if !errors.As(err, &f) {
		return err
	}
	return dErrors.Wrap(err, f.Code(), f.Error())
}

// FailureKindOf extracts the kind of the first Failure in the chain.
func FailureKindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
