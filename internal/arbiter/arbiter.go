// Package arbiter merges the predictions of the majority-class random forest
// and the minority-class decision tree into one quality label.
package arbiter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/straja-ai/winegrade/internal/classifier"
	"github.com/straja-ai/winegrade/internal/features"
)

// Thresholds are the confidence cut-offs of the first two rules. Both are
// inclusive.
type Thresholds struct {
	RF      float64 `json:"rf_conf_thresh"`
	DTMinor float64 `json:"dt_conf_thresh_minor"`
}

// DefaultThresholds are the values the models were calibrated against.
var DefaultThresholds = Thresholds{RF: 0.8, DTMinor: 0.4}

// Model names a classifier for display.
type Model string

const (
	RandomForest Model = "Random Forest"
	DecisionTree Model = "Decision Tree"
)

// Rule identifies which branch of the arbitration produced the label.
type Rule int

const (
	RuleRFMedium Rule = iota + 1
	RuleDTMinority
	RuleRFFallback
)

func (r Rule) String() string {
	switch r {
	case RuleRFMedium:
		return "rf_medium_confident"
	case RuleDTMinority:
		return "dt_minority_confident"
	case RuleRFFallback:
		return "rf_fallback"
	}
	return "unknown"
}

func (r Rule) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Decision is the arbitration result for one vector.
type Decision struct {
	Final        classifier.Class
	RFConfidence float64
	DTConfidence float64
	RF           classifier.Output
	DT           classifier.Output
	Rule         Rule
	// Source is the model whose prediction became Final. It can differ
	// from ModelUsed under the fallback rule.
	Source Model
}

// ModelUsed is the model credited with the label: the decision tree for
// Low and High, the random forest for Medium. It depends only on Final.
func (d Decision) ModelUsed() Model {
	if d.Final.Minority() {
		return DecisionTree
	}
	return RandomForest
}

// Confidence is the confidence of the credited model.
func (d Decision) Confidence() float64 {
	if d.ModelUsed() == DecisionTree {
		return d.DTConfidence
	}
	return d.RFConfidence
}

// DisplayConfidence renders Confidence as a percentage with one decimal.
func (d Decision) DisplayConfidence() string {
	return strconv.FormatFloat(d.Confidence()*100, 'f', 1, 64) + "%"
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Final             classifier.Class  `json:"final_class"`
		Label             string            `json:"label"`
		ModelUsed         Model             `json:"model_used"`
		Confidence        float64           `json:"confidence"`
		DisplayConfidence string            `json:"display_confidence"`
		RFConfidence      float64           `json:"rf_confidence"`
		DTConfidence      float64           `json:"dt_confidence"`
		RF                classifier.Output `json:"random_forest"`
		DT                classifier.Output `json:"decision_tree"`
		Rule              Rule              `json:"rule"`
		Source            Model             `json:"source"`
	}{
		Final:             d.Final,
		Label:             d.Final.Label(),
		ModelUsed:         d.ModelUsed(),
		Confidence:        d.Confidence(),
		DisplayConfidence: d.DisplayConfidence(),
		RFConfidence:      d.RFConfidence,
		DTConfidence:      d.DTConfidence,
		RF:                d.RF,
		DT:                d.DT,
		Rule:              d.Rule,
		Source:            d.Source,
	})
}

// Decide applies the rules in order; the first match wins.
func Decide(rf, dt classifier.Output, th Thresholds) (classifier.Class, Rule) {
	if rf.Class == classifier.Medium && rf.Confidence >= th.RF {
		return classifier.Medium, RuleRFMedium
	}
	if dt.Class.Minority() && dt.Confidence >= th.DTMinor {
		return dt.Class, RuleDTMinority
	}
	return rf.Class, RuleRFFallback
}

// Observer is notified of every completed decision.
type Observer interface {
	ObserveDecision(ctx context.Context, d Decision, elapsed time.Duration)
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithThresholds overrides DefaultThresholds.
func WithThresholds(th Thresholds) Option {
	return func(a *Arbiter) { a.th = th }
}

// WithLogger sets the logger used for the per-call debug line.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Arbiter) { a.log = l }
}

// WithObserver registers o for decision metrics.
func WithObserver(o Observer) Option {
	return func(a *Arbiter) { a.obs = o }
}

// Arbiter holds the two injected classifiers. It is stateless across calls
// and safe for concurrent use when the classifiers are.
type Arbiter struct {
	rf  classifier.Classifier
	dt  classifier.Classifier
	th  Thresholds
	log zerolog.Logger
	obs Observer
}

// New builds an Arbiter over rf and dt.
func New(rf, dt classifier.Classifier, opts ...Option) *Arbiter {
	a := &Arbiter{rf: rf, dt: dt, th: DefaultThresholds, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Thresholds returns the active thresholds.
func (a *Arbiter) Thresholds() Thresholds { return a.th }

// Arbitrate validates v, queries both classifiers and applies the rules.
// A ValidationError is returned before any model call; a model failure is
// returned as classifier.ErrModelUnavailable with no partial decision.
func (a *Arbiter) Arbitrate(ctx context.Context, v features.Vector) (Decision, error) {
	if err := v.Validate(); err != nil {
		return Decision{}, err
	}
	start := time.Now()

	row := v.Row()
	if e := a.log.Debug(); e.Enabled() {
		cols := zerolog.Dict()
		for i, f := range features.CanonicalOrder {
			cols.Float32(string(f), row[i])
		}
		e.Dict("input", cols).Msg("arbiter input")
	}

	rf, err := classifier.Evaluate(ctx, a.rf, row)
	if err != nil {
		return Decision{}, fmt.Errorf("arbitrate: %w", err)
	}
	dt, err := classifier.Evaluate(ctx, a.dt, row)
	if err != nil {
		return Decision{}, fmt.Errorf("arbitrate: %w", err)
	}

	final, rule := Decide(rf, dt, a.th)
	d := Decision{
		Final:        final,
		RFConfidence: rf.Confidence,
		DTConfidence: dt.Confidence,
		RF:           rf,
		DT:           dt,
		Rule:         rule,
		Source:       RandomForest,
	}
	if rule == RuleDTMinority {
		d.Source = DecisionTree
	}

	if a.obs != nil {
		a.obs.ObserveDecision(ctx, d, time.Since(start))
	}
	return d, nil
}
