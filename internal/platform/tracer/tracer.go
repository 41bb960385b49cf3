// Package tracer provides a small tracing abstraction so the verification
// client can emit spans without importing OpenTelemetry everywhere.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanVerifierCreateRequest = "verifier.create_request"
	SpanVerifierResult        = "verifier.result"
	SpanVerifierReverify      = "verifier.reverify"
	SpanPollLoop              = "verification.poll"
	SpanIssuerIssue           = "issuer.issue"
)

// Attribute keys.
const (
	AttrTransactionID = "verification.transaction_id"
	AttrVerifierRef   = "verification.ref"
	AttrVerified      = "verification.verified"
	AttrAttempts      = "verification.poll_attempts"
	AttrHTTPStatus    = "http.status_code"
	AttrErrorCategory = "error.category"
)

// Event names.
const (
	EventPollTransient = "poll.transient_error"
	EventPollStale     = "poll.stale_response"
)
