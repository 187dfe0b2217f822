package main

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/oteladapters"
	"github.com/AntonStoeckl/bookstore-queries-go/runner"
)

// Observability holds the collectors handed to the runner and the store.
type Observability struct {
	Logger           bookstore.Logger
	ContextualLogger bookstore.ContextualLogger
	MetricsCollector bookstore.MetricsCollector
	TracingCollector bookstore.TracingCollector

	shutdown []func(context.Context) error
}

// Shutdown flushes and stops the OpenTelemetry providers.
func (o Observability) Shutdown(ctx context.Context) error {
	errs := make([]error, 0, len(o.shutdown))
	for _, shutdown := range o.shutdown {
		errs = append(errs, shutdown(ctx))
	}

	return errors.Join(errs...)
}

// newObservability always sets the slog logger; the OpenTelemetry collectors only when enabled.
func newObservability(ctx context.Context, cfg Config, logger bookstore.Logger) (Observability, error) {
	obs := Observability{Logger: logger}

	if !cfg.ObservabilityEnabled {
		return obs, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(defaultObservabilityName),
		),
	)
	if err != nil {
		return Observability{}, err
	}

	traceExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.TraceEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return Observability{}, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.MetricEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return Observability{}, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(defaultMetricExportPeriod))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	obs.ContextualLogger = oteladapters.NewSlogBridgeLogger(defaultObservabilityName)
	obs.MetricsCollector = oteladapters.NewMetricsCollector(meterProvider.Meter(defaultObservabilityName))
	obs.TracingCollector = oteladapters.NewTracingCollector(tracerProvider.Tracer(defaultObservabilityName))
	obs.shutdown = []func(context.Context) error{tracerProvider.Shutdown, meterProvider.Shutdown}

	return obs, nil
}

func (o Observability) runnerOptions() []runner.Option {
	options := []runner.Option{runner.WithLogger(o.Logger)}

	if o.ContextualLogger != nil {
		options = append(options, runner.WithContextualLogger(o.ContextualLogger))
	}

	if o.MetricsCollector != nil {
		options = append(options, runner.WithMetrics(o.MetricsCollector))
	}

	if o.TracingCollector != nil {
		options = append(options, runner.WithTracing(o.TracingCollector))
	}

	return options
}
