package jwtverify

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer records one span per verification, named "jwtverify.verify" and
// tagged with the routed issuer and, on failure, the rejection reason.
type Tracer interface {
	StartSpan(operationName string) Span
}

// Span is the verifier's view of an in-flight trace span.
type Span interface {
	Finish()
	SetTag(key string, value interface{})
}

// NoopTracer is the default: no spans are recorded.
type NoopTracer struct{}

func (t *NoopTracer) StartSpan(operationName string) Span {
	return noopSpan{}
}

type noopSpan struct{}

func (noopSpan) Finish()                              {}
func (noopSpan) SetTag(key string, value interface{}) {}

// OpenTelemetryTracer records verification spans through an OpenTelemetry
// tracer, with tags mapped to string attributes.
type OpenTelemetryTracer struct {
	tracer oteltrace.Tracer
}

// NewOpenTelemetryTracer wraps an oteltrace.Tracer, e.g.
// otel.Tracer("jwtverify"), for use with WithTracer.
func NewOpenTelemetryTracer(tracer oteltrace.Tracer) Tracer {
	return &OpenTelemetryTracer{tracer: tracer}
}

func (t *OpenTelemetryTracer) StartSpan(operationName string) Span {
	_, span := t.tracer.Start(context.Background(), operationName)
	return &openTelemetrySpan{span: span}
}

type openTelemetrySpan struct {
	span oteltrace.Span
}

func (s *openTelemetrySpan) Finish() {
	s.span.End()
}

func (s *openTelemetrySpan) SetTag(key string, value interface{}) {
	s.span.SetAttributes(attribute.String(key, fmt.Sprint(value)))
}
