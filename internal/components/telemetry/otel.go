package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const report_otel = "otel"

// Endpoint is one otlp collector, the grpc endpoint is used when both are set.
type Endpoint struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (e Endpoint) enabled() bool {
	return e.GrpcEndpoint != "" || e.HttpEndpoint != ""
}

type OtlpConfig struct {
	Traces  Endpoint `json:"traces"`
	Metrics Endpoint `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Otel holds the installed providers, a provider is nil when its endpoint is not set.
type Otel struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Shutdown flushes and stops every installed provider.
func (o Otel) Shutdown(ctx context.Context) error {
	var errs []error
	if o.TracerProvider != nil {
		errs = append(errs, o.TracerProvider.Shutdown(ctx))
	}
	if o.MeterProvider != nil {
		errs = append(errs, o.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// SetupOtel installs the global tracer and meter providers for the configured endpoints
// and routes otel's internal errors to tel. Signals without an endpoint keep the global
// no-op provider.
func SetupOtel(ctx context.Context, serviceName string, config Config, tel API) (Otel, error) {
	traces, metrics := config.Otlp.Traces, config.Otlp.Metrics
	if !traces.enabled() && !metrics.enabled() {
		return Otel{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		tel.ReportBroken(report_otel, err)
	}))

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return Otel{}, err
	}

	var out Otel
	if traces.enabled() {
		exporter, err := spanExporter(ctx, traces)
		if err != nil {
			return out, err
		}
		out.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(out.TracerProvider)
	}
	if metrics.enabled() {
		exporter, err := metricExporter(ctx, metrics)
		if err != nil {
			return out, err
		}
		out.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(out.MeterProvider)
	}
	return out, nil
}

func spanExporter(ctx context.Context, e Endpoint) (sdktrace.SpanExporter, error) {
	if e.GrpcEndpoint != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(e.GrpcEndpoint), otlptracegrpc.WithHeaders(e.Headers))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(e.HttpEndpoint), otlptracehttp.WithHeaders(e.Headers))
}

func metricExporter(ctx context.Context, e Endpoint) (sdkmetric.Exporter, error) {
	if e.GrpcEndpoint != "" {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(e.GrpcEndpoint), otlpmetricgrpc.WithHeaders(e.Headers))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(e.HttpEndpoint), otlpmetrichttp.WithHeaders(e.Headers))
}
