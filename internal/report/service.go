package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/features"
)

// Arbitrator is the classification half of an analysis.
type Arbitrator interface {
	Arbitrate(ctx context.Context, v features.Vector) (arbiter.Decision, error)
}

// Observer is notified of every assembled report.
type Observer interface {
	ObserveReport(ctx context.Context, r Report)
}

// Timings holds latency measurements for the stages of one analysis.
type Timings struct {
	Classification time.Duration
	Bands          time.Duration
	Total          time.Duration
}

func (t Timings) MarshalJSON() ([]byte, error) {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }
	return json.Marshal(map[string]float64{
		"classification_ms": ms(t.Classification),
		"bands_ms":          ms(t.Bands),
		"total_ms":          ms(t.Total),
	})
}

// Analysis is the joined result for one vector. The two halves fail
// independently: Classification is nil when ClassificationErr is set, and
// Report is complete either way.
type Analysis struct {
	ID                uuid.UUID
	Input             features.Vector
	Classification    *arbiter.Decision
	ClassificationErr error
	Report            Report
	Timings           Timings
}

func (a *Analysis) MarshalJSON() ([]byte, error) {
	var classErr string
	if a.ClassificationErr != nil {
		classErr = a.ClassificationErr.Error()
	}
	return json.Marshal(struct {
		ID                  uuid.UUID         `json:"id"`
		Input               features.Vector   `json:"input"`
		Classification      *arbiter.Decision `json:"classification"`
		ClassificationError string            `json:"classification_error,omitempty"`
		Report              Report            `json:"report"`
		Timings             Timings           `json:"timings"`
	}{a.ID, a.Input, a.Classification, classErr, a.Report, a.Timings})
}

// Option configures a Service.
type Option func(*Service)

// WithTracer sets the tracer for analysis spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithObserver registers o for report metrics.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.obs = o }
}

// Service runs both halves of an analysis.
type Service struct {
	arb    Arbitrator
	tracer trace.Tracer
	log    zerolog.Logger
	obs    Observer
}

// NewService builds a Service over arb.
func NewService(arb Arbitrator, opts ...Option) *Service {
	s := &Service{
		arb:    arb,
		tracer: noop.NewTracerProvider().Tracer(""),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze validates v once, then runs the arbiter and the band analyzer
// concurrently. Only a ValidationError fails the whole call.
func (s *Service) Analyze(ctx context.Context, v features.Vector) (*Analysis, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	ctx, span := s.tracer.Start(ctx, "winegrade.analyze", trace.WithAttributes(
		attribute.String("winegrade.analysis_id", id.String()),
	))
	defer span.End()

	start := time.Now()
	a := &Analysis{ID: id, Input: v}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cspan := s.tracer.Start(gctx, "winegrade.arbitrate")
		defer cspan.End()

		t0 := time.Now()
		d, err := s.arb.Arbitrate(cctx, v)
		a.Timings.Classification = time.Since(t0)
		if err != nil {
			cspan.RecordError(err)
			cspan.SetStatus(codes.Error, "classification unavailable")
			a.ClassificationErr = err
			return nil
		}
		cspan.SetAttributes(
			attribute.String("winegrade.rule", d.Rule.String()),
			attribute.Int("winegrade.final_class", int(d.Final)),
		)
		a.Classification = &d
		return nil
	})
	g.Go(func() error {
		_, bspan := s.tracer.Start(gctx, "winegrade.bands")
		defer bspan.End()

		t0 := time.Now()
		entries, err := bands.Analyze(v)
		if err == nil {
			a.Report, err = Assemble(entries)
		}
		a.Timings.Bands = time.Since(t0)
		if err != nil {
			bspan.RecordError(err)
			bspan.SetStatus(codes.Error, err.Error())
		}
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	a.Timings.Total = time.Since(start)

	if a.ClassificationErr != nil {
		span.SetStatus(codes.Error, "classification unavailable")
		s.log.Warn().Err(a.ClassificationErr).Str("analysis_id", id.String()).Msg("classification unavailable, serving diagnostics only")
	}
	if s.obs != nil {
		s.obs.ObserveReport(ctx, a.Report)
	}

	ev := s.log.Debug().Str("analysis_id", id.String()).
		Int("attention", len(a.Report.Attention())).
		Dur("total", a.Timings.Total)
	if a.Classification != nil {
		ev = ev.Str("label", a.Classification.Final.Label()).Str("model_used", string(a.Classification.ModelUsed()))
	}
	ev.Msg("analysis complete")
	return a, nil
}
