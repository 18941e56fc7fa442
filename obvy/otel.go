package midiassign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for midiassign spans
const TracerName = "github.com/maroda/midiassign"

// Tracer returns the tracer from the global provider,
// a no-op until one of the Init functions has run
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitOTel picks a provider by name: "honeycomb" or "otlp".
// The returned func flushes and stops the provider.
func InitOTel(ctx context.Context, provider string) (func(), error) {
	switch provider {
	case "honeycomb":
		return InitOTelHNY()
	case "otlp", "":
		tp, err := InitOTelGRF(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("OTel shutdown failed", slog.Any("error", err))
			}
		}, nil
	}
	return nil, fmt.Errorf("unknown OTel provider: %q", provider)
}

// InitOTelHNY uses the Honeycomb library to interface with OTel
func InitOTelHNY() (func(), error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func() { otelShutdown() }, nil
}

// InitOTelGRF uses the Grafana recommended configuration including Baggage for propagation.
// The exporter reads OTEL_EXPORTER_OTLP_* from the environment.
func InitOTelGRF(ctx context.Context) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}
