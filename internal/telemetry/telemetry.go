package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/report"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes helpers. It implements
// arbiter.Observer and report.Observer.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	decisionsCounter      metric.Int64Counter
	arbitrationDuration   metric.Float64Histogram
	tiersCounter          metric.Int64Counter
	requestsCounter       metric.Int64Counter
	requestDuration       metric.Float64Histogram
	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

var (
	_ arbiter.Observer = (*Provider)(nil)
	_ report.Observer  = (*Provider)(nil)
)

// NewProvider configures OTEL exporters + providers. When disabled, returns no-op providers.
func NewProvider(ctx context.Context, cfg Config, log zerolog.Logger) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		no := &Provider{
			Enabled: false,
			tracer:  tracenoop.NewTracerProvider().Tracer(""),
			meter:   noop.NewMeterProvider().Meter(""),
		}
		no.initInstruments()
		return no, nil
	}

	log.Info().
		Str("protocol", strings.ToLower(cfg.Protocol)).
		Str("endpoint", cfg.Endpoint).
		Msg("telemetry enabled (OpenTelemetry OTLP); if no collector is listening, periodic 'failed to upload metrics' warnings are expected")

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var (
		traceExp  sdktrace.SpanExporter
		metricExp sdkmetric.Exporter
	)
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		traceExp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
	case "http":
		traceExp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
	default:
		return nil, errUnknownProtocol(cfg.Protocol)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer("winegrade"),
		meter:                 mp.Meter("winegrade"),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Use meter to create instruments; ignore errors to keep telemetry best-effort.
	p.decisionsCounter, _ = p.meter.Int64Counter("winegrade_decisions_total")
	p.arbitrationDuration, _ = p.meter.Float64Histogram("winegrade_arbitration_duration_ms")
	p.tiersCounter, _ = p.meter.Int64Counter("winegrade_band_tiers_total")
	p.requestsCounter, _ = p.meter.Int64Counter("winegrade_requests_total")
	p.requestDuration, _ = p.meter.Float64Histogram("winegrade_request_duration_ms")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return tracenoop.NewTracerProvider().Tracer("")
	}
	return p.tracer
}

// Meter returns the meter.
func (p *Provider) Meter() metric.Meter {
	if p == nil {
		return noop.NewMeterProvider().Meter("")
	}
	return p.meter
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// ObserveDecision counts decisions by label, rule and credited model.
func (p *Provider) ObserveDecision(ctx context.Context, d arbiter.Decision, elapsed time.Duration) {
	if p == nil {
		return
	}
	attrs := metric.WithAttributes(SafeAttributes(map[string]interface{}{
		"winegrade.final_class": d.Final.String(),
		"winegrade.rule":        d.Rule.String(),
		"winegrade.model_used":  string(d.ModelUsed()),
	})...)
	p.decisionsCounter.Add(ctx, 1, attrs)
	p.arbitrationDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

// ObserveReport counts tiers per parameter.
func (p *Provider) ObserveReport(ctx context.Context, r report.Report) {
	if p == nil {
		return
	}
	for _, e := range r.Entries {
		p.tiersCounter.Add(ctx, 1, metric.WithAttributes(SafeAttributes(map[string]interface{}{
			"winegrade.parameter": string(e.Parameter),
			"winegrade.tier":      e.Tier.String(),
			"winegrade.color":     string(e.Color),
		})...))
	}
}

// RecordRequestMetrics emits counters/histograms with safe labels.
func (p *Provider) RecordRequestMetrics(route string, status int, durMs float64) {
	if p == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	p.requestsCounter.Add(context.Background(), 1, attrs)
	p.requestDuration.Record(context.Background(), durMs, attrs)
}
