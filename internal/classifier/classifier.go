package classifier

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -destination=mock_classifier.go -package=classifier github.com/straja-ai/winegrade/internal/classifier Classifier

// Class is a quality label predicted by a classifier.
type Class int

const (
	Low Class = iota
	Medium
	High
)

// NumClasses is the size of every probability distribution.
const NumClasses = 3

// Valid reports whether c is one of Low, Medium, High.
func (c Class) Valid() bool { return c >= Low && c <= High }

// Minority reports whether c is one of the extreme classes.
func (c Class) Minority() bool { return c == Low || c == High }

func (c Class) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Label is the human readable quality name.
func (c Class) Label() string {
	switch c {
	case Low:
		return "Low Quality"
	case Medium:
		return "Medium Quality"
	case High:
		return "High Quality"
	default:
		return "Unknown Quality"
	}
}

// Classifier is a trained model treated as an opaque capability. Rows are
// always in features.CanonicalOrder.
type Classifier interface {
	Name() string
	Predict(ctx context.Context, row []float32) (Class, error)
	PredictProba(ctx context.Context, row []float32) ([]float64, error)
}

// Scorer is implemented by classifiers that produce label and distribution
// in a single inference.
type Scorer interface {
	Score(ctx context.Context, row []float32) (Class, []float64, error)
}

// Output is one classifier's answer for one row.
type Output struct {
	Class         Class     `json:"class"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

// ErrModelUnavailable is matched by every UnavailableError.
var ErrModelUnavailable = errors.New("model unavailable")

// UnavailableError reports a classifier that failed to load or to predict.
type UnavailableError struct {
	Model string
	Err   error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model %s unavailable", e.Model)
	}
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// Unavailable wraps err as an UnavailableError for model unless it already is one.
func Unavailable(model string, err error) error {
	if errors.Is(err, ErrModelUnavailable) {
		return err
	}
	return &UnavailableError{Model: model, Err: err}
}

// Evaluate runs c on row and derives the confidence as the probability mass
// at the predicted class. Any failure is reported as ErrModelUnavailable.
func Evaluate(ctx context.Context, c Classifier, row []float32) (Output, error) {
	var (
		pred  Class
		probs []float64
		err   error
	)
	if s, ok := c.(Scorer); ok {
		pred, probs, err = s.Score(ctx, row)
		if err != nil {
			return Output{}, Unavailable(c.Name(), err)
		}
	} else {
		pred, err = c.Predict(ctx, row)
		if err != nil {
			return Output{}, Unavailable(c.Name(), fmt.Errorf("predict: %w", err))
		}
		probs, err = c.PredictProba(ctx, row)
		if err != nil {
			return Output{}, Unavailable(c.Name(), fmt.Errorf("predict proba: %w", err))
		}
	}

	if !pred.Valid() {
		return Output{}, Unavailable(c.Name(), fmt.Errorf("predicted class %d out of range", int(pred)))
	}
	if int(pred) >= len(probs) {
		return Output{}, Unavailable(c.Name(), fmt.Errorf("distribution of %d classes does not cover class %d", len(probs), int(pred)))
	}

	return Output{
		Class:         pred,
		Confidence:    probs[pred],
		Probabilities: probs,
	}, nil
}
