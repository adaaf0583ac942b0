package app

import (
    "context"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/sdk/resource"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// setupTracing registers a global tracer provider exporting to endpoint.
// With an empty endpoint tracing stays disabled and shutdown is a no-op.
func setupTracing(ctx context.Context, endpoint string) (shutdown func(context.Context) error, err error) {
    noop := func(context.Context) error { return nil }
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
            semconv.ServiceName(ServiceName),
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
