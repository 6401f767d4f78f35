package classifier

import (
	"context"
	"errors"
)

// Static answers every row with the same distribution. It backs the
// "static" model type used for demos and tests without onnxruntime.
type Static struct {
	ModelName     string
	Probabilities []float64
	Err           error
}

func NewStatic(name string, probs ...float64) *Static {
	return &Static{ModelName: name, Probabilities: probs}
}

func (s *Static) Name() string { return s.ModelName }

// Predict returns the first class with the highest probability.
func (s *Static) Predict(ctx context.Context, row []float32) (Class, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if len(s.Probabilities) == 0 {
		return 0, errors.New("static classifier has no probabilities")
	}
	best := 0
	for i, p := range s.Probabilities {
		if p > s.Probabilities[best] {
			best = i
		}
	}
	return Class(best), nil
}

func (s *Static) PredictProba(ctx context.Context, row []float32) ([]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]float64, len(s.Probabilities))
	copy(out, s.Probabilities)
	return out, nil
}
