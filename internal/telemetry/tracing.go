// Package telemetry configures OpenTelemetry tracing. Spans are exported over
// OTLP/HTTP; the endpoint and headers come from the standard
// OTEL_EXPORTER_OTLP_* environment variables.
package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const ServiceName = "interview-server"

type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider. When disabled the global no-op
// provider stays in place and the returned shutdown does nothing.
func Setup(ctx context.Context, enabled bool, environment string) (ShutdownFunc, error) {
	if !enabled {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := NewProvider(exporter, environment)
	otel.SetTracerProvider(provider)

	log.Info().Str("service", ServiceName).Msg("tracing enabled")
	return provider.Shutdown, nil
}

// NewProvider builds a batching tracer provider around exporter.
func NewProvider(exporter sdktrace.SpanExporter, environment string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("deployment.environment", environment),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
}
