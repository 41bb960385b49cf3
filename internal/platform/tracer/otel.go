package tracer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInstrumentationName names the tracer taken from the global provider.
const DefaultInstrumentationName = "talentmatch/verification"

// EventCanceled is recorded instead of an error when a span ends because its
// context was cancelled, e.g. a verification reset mid-poll.
const EventCanceled = "canceled"

// outboundSpans are the spans that wrap a single HTTP call to the wallet
// verifier or issuer. They are started with client kind.
var outboundSpans = map[string]struct{}{
	SpanVerifierCreateRequest: {},
	SpanVerifierResult:        {},
	SpanVerifierReverify:      {},
	SpanIssuerIssue:           {},
}

// OTelTracer satisfies Tracer on top of an OpenTelemetry tracer, so the
// verifier and issuer clients never import OpenTelemetry directly.
type OTelTracer struct {
	name   string
	tracer trace.Tracer
}

// OTelOption configures the OTelTracer.
type OTelOption func(*OTelTracer)

// WithOTelTracer injects a pre-configured OpenTelemetry tracer, typically
// one from a test provider.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) {
		o.tracer = t
	}
}

// WithInstrumentationName overrides DefaultInstrumentationName. Ignored when
// a tracer is injected.
func WithInstrumentationName(name string) OTelOption {
	return func(o *OTelTracer) {
		if name != "" {
			o.name = name
		}
	}
}

// NewOTel creates an OpenTelemetry-backed tracer. Without WithOTelTracer it
// asks the global tracer provider, so whatever exporter main installs is used.
func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{name: DefaultInstrumentationName}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(t.name)
	}
	return t
}

// Start opens a span. Verifier and issuer round trips get client kind; the
// poll loop and everything else stay internal.
func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	kind := trace.SpanKindInternal
	if _, ok := outboundSpans[name]; ok {
		kind = trace.SpanKindClient
	}
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(toOTelAttributes(attrs)...),
	)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// End closes the span. Cancellation is recorded as an event, not an error:
// resets and superseded attempts are part of normal operation.
func (s *otelSpan) End(err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.span.AddEvent(EventCanceled)
	default:
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(toOTelAttributes(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toOTelAttributes(attrs)...))
}

// toOTelAttributes converts attributes, dropping values of unsupported types.
func toOTelAttributes(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case int:
			out = append(out, attribute.Int(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		}
	}
	return out
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = (*otelSpan)(nil)
)
