// Package apm wires OpenTelemetry tracing for the pools service.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/perpetual-pools/internal/logger"
)

// Exporter names accepted in telemetry.exporter.
type Exporter string

const (
	ConsoleExporter  Exporter = "console"
	ZipkinExporter   Exporter = "zipkin"
	OTLPGRPCExporter Exporter = "otlp"
	OTLPHTTPExporter Exporter = "otlp-http"
	NoopExporter     Exporter = "none"
)

// TraceProvider is a running tracer provider.
type TraceProvider interface {
	Stop() error
}

// Options configures NewTraceProvider.
type Options struct {
	ServiceName string
	Exporter    Exporter
	Endpoint    string
	Headers     string // "k1=v1,k2=v2"
}

type noopProvider struct{}

func (noopProvider) Stop() error { return nil }

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTraceProvider builds the exporter named in opts and installs a global
// tracer provider. NoopExporter leaves the otel default (no-op) in place.
func NewTraceProvider(ctx context.Context, log logger.LoggerInterface, opts Options) (TraceProvider, error) {
	if opts.Exporter == NoopExporter || opts.Exporter == "" {
		return noopProvider{}, nil
	}

	exp, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("apm: %s exporter: %w", opts.Exporter, err)
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("otel.exporter", string(opts.Exporter)),
		))
	if err != nil {
		return nil, fmt.Errorf("apm: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "exporter", opts.Exporter, "endpoint", opts.Endpoint)
	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ConsoleExporter:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinExporter:
		return zipkin.New(opts.Endpoint)
	case OTLPGRPCExporter:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.Endpoint),
			otlptracegrpc.WithHeaders(ParseHeaders(opts.Headers)),
		)
	case OTLPHTTPExporter:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(opts.Endpoint),
			otlptracehttp.WithHeaders(ParseHeaders(opts.Headers)),
		)
	default:
		return nil, fmt.Errorf("unknown exporter %q", opts.Exporter)
	}
}

// ParseHeaders parses "k1=v1,k2=v2". Malformed pairs are skipped.
func ParseHeaders(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}
