// Package tracing provides the OpenTelemetry tracer recording spans
// around investigation runs and source lookups. Disabled tracers return
// no-op spans, so callers never need to branch on configuration.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tagus/trailhound/pkg/interfaces"
)

// OTelTracer implements interfaces.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer      trace.Tracer
	enabled     bool
	serviceName string
}

// OTelSpan wraps an OpenTelemetry span to implement interfaces.Span.
type OTelSpan struct {
	span trace.Span
}

// End implements interfaces.Span
func (s *OTelSpan) End() {
	s.span.End()
}

// SetAttribute implements interfaces.Span
func (s *OTelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
}

// AddEvent implements interfaces.Span
func (s *OTelSpan) AddEvent(name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", v)))
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError implements interfaces.Span
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// Config contains configuration for OpenTelemetry
type Config struct {
	// Enabled determines whether tracing is enabled
	Enabled bool

	// ServiceName is the name of the service
	ServiceName string

	// CollectorEndpoint is the endpoint of the OpenTelemetry collector
	CollectorEndpoint string

	// Tracer allows passing a pre-built tracer instead of creating one
	Tracer trace.Tracer
}

// New creates a new OpenTelemetry tracer. When disabled, the returned
// tracer emits no-op spans.
func New(config Config) (*OTelTracer, error) {
	if !config.Enabled {
		return &OTelTracer{enabled: false}, nil
	}

	var tracer trace.Tracer
	if config.Tracer != nil {
		tracer = config.Tracer
	} else {
		exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(config.CollectorEndpoint),
			otlptracegrpc.WithInsecure(),
		))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				semconv.ServiceNameKey.String(config.ServiceName),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}

		provider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		tracer = provider.Tracer(config.ServiceName)
	}

	return &OTelTracer{
		tracer:      tracer,
		enabled:     true,
		serviceName: config.ServiceName,
	}, nil
}

// StartSpan implements interfaces.Tracer. A disabled tracer returns the
// context unchanged with a no-op span.
func (t *OTelTracer) StartSpan(ctx context.Context, name string) (context.Context, interfaces.Span) {
	if !t.enabled {
		return ctx, noopSpan{}
	}
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OTelSpan{span: span}
}

type noopSpan struct{}

func (noopSpan) End()                                    {}
func (noopSpan) SetAttribute(string, interface{})        {}
func (noopSpan) AddEvent(string, map[string]interface{}) {}
func (noopSpan) RecordError(error)                       {}
