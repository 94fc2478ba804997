package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const metricsExportInterval = 15 * time.Second

// ObservabilityProviders holds the OpenTelemetry providers of the process.
// A provider is nil when its exporter is not configured.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders creates OTLP gRPC exporting providers for the configured endpoints
// and installs them, plus the W3C trace context propagator, as the global providers.
func NewObservabilityProviders(ctx context.Context, o Observability) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(o.ServiceName),
			semconv.ServiceVersionKey.String(o.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	providers := &ObservabilityProviders{Resource: res}

	if o.TracesEndpoint != "" {
		options := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.TracesEndpoint)}
		if !o.TLS {
			options = append(options, otlptracegrpc.WithInsecure())
		}

		traceExporter, exporterErr := otlptracegrpc.New(ctx, options...)
		if exporterErr != nil {
			return nil, exporterErr
		}

		providers.TracerProvider = trace.NewTracerProvider(
			trace.WithBatcher(traceExporter),
			trace.WithResource(res),
		)
		otel.SetTracerProvider(providers.TracerProvider)
	}

	if o.MetricsEndpoint != "" {
		options := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(o.MetricsEndpoint)}
		if !o.TLS {
			options = append(options, otlpmetricgrpc.WithInsecure())
		}

		metricExporter, exporterErr := otlpmetricgrpc.New(ctx, options...)
		if exporterErr != nil {
			_ = providers.Shutdown(ctx)
			return nil, exporterErr
		}

		providers.MeterProvider = metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(metricsExportInterval))),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(providers.MeterProvider)
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	return providers, nil
}

// Shutdown flushes and stops the providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}

	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
