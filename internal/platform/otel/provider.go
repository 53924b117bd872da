// Package otel wires OpenTelemetry tracing for ledger processes.
package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Environment read by Setup. Both names carry the ledger's CREDIT_CASTOR_
// prefix so they never collide with the SDK's own OTEL_* variables.
const (
	// envEndpoint is the full OTLP/HTTP traces URL, for example
	// http://localhost:4318/v1/traces.
	envEndpoint = "CREDIT_CASTOR_OTEL_ENDPOINT"
	// envEnabled set to "false" disables tracing even with an endpoint.
	envEnabled = "CREDIT_CASTOR_OTEL_ENABLED"

	instrumentationName = "github.com/louisbranch/credit-castor"
)

// Setup initialises tracing for the ledger process, recorded under
// serviceName (the CLI entrypoint passes "ledger").
//
// It reads two variables:
//   - CREDIT_CASTOR_OTEL_ENDPOINT: the OTLP/HTTP traces URL. Empty means
//     tracing stays off.
//   - CREDIT_CASTOR_OTEL_ENABLED: "false" (any case) turns tracing off.
//
// When tracing is off Setup returns a no-op shutdown and leaves the global
// provider untouched, so the ledger.Record and ledger.Project spans started
// through Tracer are free. Otherwise the returned shutdown flushes pending spans and should
// be deferred by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(envEnabled), "false") {
		return noop, nil
	}

	endpoint := strings.TrimSpace(os.Getenv(envEndpoint))
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the tracer the ledger service starts its spans on.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
