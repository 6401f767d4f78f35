package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/classifier"
	"github.com/straja-ai/winegrade/internal/features"
	"github.com/straja-ai/winegrade/internal/report"
)

func TestSafeAttributesDropsHighCardinality(t *testing.T) {
	kvs := map[string]interface{}{
		"winegrade.analysis_id": "6f1c",
		"winegrade.value":       "12.0",
		"input":                 "x",
		"winegrade.tier":        "ideal",
		"winegrade.alcohol":     12.04,
		"long_string":           string(make([]byte, 200)),
		"ok":                    true,
	}

	attrs := SafeAttributes(kvs)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d: %v", len(attrs), attrs)
	}
	if attrs[0].Key != "ok" || attrs[1].Key != "winegrade.tier" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestDisabledProviderObserves(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Enabled {
		t.Fatalf("expected disabled provider")
	}

	p.ObserveDecision(context.Background(), arbiter.Decision{Final: classifier.Medium, Rule: arbiter.RuleRFMedium}, time.Millisecond)

	entries, err := bands.Analyze(features.Default)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	r, err := report.Assemble(entries)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	p.ObserveReport(context.Background(), r)
	p.RecordRequestMetrics("/v1/analyze", 200, 1.5)
	p.Shutdown(context.Background())

	var nilProvider *Provider
	nilProvider.ObserveReport(context.Background(), r)
	if nilProvider.Tracer() == nil || nilProvider.Meter() == nil {
		t.Fatalf("nil provider should hand out noop tracer and meter")
	}
}

func TestUnknownProtocol(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, Endpoint: "localhost:4317", Protocol: "udp"}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for unknown protocol")
	}
}
