// Package observability owns process-wide logging, tracing and metrics setup.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Instruments is what the rest of the process needs from observability setup.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Span exporters selectable through OTEL_TRACES_EXPORTER.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// settings is the environment-derived configuration for Init.
type settings struct {
	environment  string
	exporter     string
	otlpEndpoint string
	otlpInsecure bool
	sampleRatio  float64
	logLevel     string
	logFormat    string
}

func settingsFromEnv() settings {
	return settings{
		environment:  envOrDefault("ENVIRONMENT", "local"),
		exporter:     strings.ToLower(envOrDefault("OTEL_TRACES_EXPORTER", ExporterOTLP)),
		otlpEndpoint: envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		otlpInsecure: envOrDefault("OTEL_EXPORTER_OTLP_INSECURE", "1") != "0",
		sampleRatio:  parseRatio(envOrDefault("OTEL_TRACES_SAMPLER_RATIO", "1")),
		logLevel:     envOrDefault("LOG_LEVEL", "info"),
		logFormat:    envOrDefault("LOG_FORMAT", "json"),
	}
}

// Init installs the global logger, tracer provider and meter provider for serviceName.
// The returned shutdown flushes buffered spans and must be called before exit.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	cfg := settingsFromEnv()
	logger := newLogger(cfg.logLevel, cfg.logFormat).With(slog.String("service", serviceName))
	slog.SetDefault(logger)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", cfg.environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.sampleRatio))),
	}
	exporter, err := newSpanExporter(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if exporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return &Instruments{Logger: logger, TracerProvider: tracerProvider, MeterProvider: meterProvider}, shutdown, nil
}

func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

// newSpanExporter returns nil for ExporterNone. An OTLP exporter that cannot be built degrades to stdout.
func newSpanExporter(ctx context.Context, cfg settings, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	switch cfg.exporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New()
	}
	var opts []otlptracehttp.Option
	if cfg.otlpEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.otlpEndpoint))
	}
	if cfg.otlpInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		logger.Warn("OTLP trace exporter unavailable, writing spans to stdout", slog.String("error", err.Error()))
		return stdouttrace.New()
	}
	return exporter, nil
}

// parseRatio clamps invalid sampler ratios to 1 (sample everything).
func parseRatio(raw string) float64 {
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}
	return ratio
}
