// Package observability provides the optional OpenTelemetry integration for
// PushRelay: a tracer span per dispatch and counters/histograms for delivery
// outcomes. A nil provider is valid and turns every call into a no-op.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/pushrelay/pkg/config"
)

const instrumentationName = "pushrelay"

// TelemetryProvider provides observability features
type TelemetryProvider struct {
	cfg           *config.TelemetryConfig
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	// Metrics
	messagesSent   metric.Int64Counter
	messagesFailed metric.Int64Counter
	sendDuration   metric.Float64Histogram
}

// NewTelemetryProvider creates a new telemetry provider. When cfg is nil or
// disabled the provider uses the global (no-op by default) otel providers and
// never exports anything.
func NewTelemetryProvider(cfg *config.TelemetryConfig) (*TelemetryProvider, error) {
	tp := &TelemetryProvider{
		cfg:    cfg,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	if cfg == nil || !cfg.Enabled {
		return tp, nil
	}

	if err := tp.initTracing(); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	if err := tp.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return tp, nil
}

// initTracing initializes OpenTelemetry tracing with an OTLP HTTP exporter
func (tp *TelemetryProvider) initTracing() error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(tp.cfg.ServiceName),
			semconv.ServiceVersion(tp.cfg.ServiceVersion),
			semconv.DeploymentEnvironment(tp.cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(tp.cfg.OTLPEndpoint),
			otlptracehttp.WithHeaders(tp.cfg.OTLPHeaders),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	sampleRate := tp.cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	tp.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRate)),
	)

	otel.SetTracerProvider(tp.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	tp.tracer = otel.Tracer(instrumentationName)
	return nil
}

// initMetrics initializes the dispatch instruments
func (tp *TelemetryProvider) initMetrics() error {
	var err error

	tp.messagesSent, err = tp.meter.Int64Counter("pushrelay.messages.sent",
		metric.WithDescription("Number of messages delivered successfully"))
	if err != nil {
		return err
	}

	tp.messagesFailed, err = tp.meter.Int64Counter("pushrelay.messages.failed",
		metric.WithDescription("Number of messages that exhausted delivery"))
	if err != nil {
		return err
	}

	tp.sendDuration, err = tp.meter.Float64Histogram("pushrelay.send.duration",
		metric.WithDescription("End-to-end dispatch duration including backoff"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	return nil
}

// StartDispatchSpan starts a span wrapping one dispatch
func (tp *TelemetryProvider) StartDispatchSpan(ctx context.Context, channel, messageID string) (context.Context, trace.Span) {
	if tp == nil || tp.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tp.tracer.Start(ctx, "pushrelay.dispatch",
		trace.WithAttributes(
			attribute.String("pushrelay.channel", channel),
			attribute.String("pushrelay.message_id", messageID),
		),
	)
}

// RecordDispatch records the outcome of one dispatch
func (tp *TelemetryProvider) RecordDispatch(ctx context.Context, channel string, success bool, duration time.Duration) {
	if tp == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("pushrelay.channel", channel))

	if success {
		if tp.messagesSent != nil {
			tp.messagesSent.Add(ctx, 1, attrs)
		}
	} else {
		if tp.messagesFailed != nil {
			tp.messagesFailed.Add(ctx, 1, attrs)
		}
	}

	if tp.sendDuration != nil {
		tp.sendDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// Shutdown flushes and stops the trace provider
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.traceProvider == nil {
		return nil
	}
	return tp.traceProvider.Shutdown(ctx)
}
