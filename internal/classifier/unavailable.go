package classifier

import "context"

type unavailableClassifier struct {
	name  string
	cause error
}

// NewUnavailable returns a classifier that fails every call with cause.
// It stands in for a model that could not be loaded so diagnostics keep working.
func NewUnavailable(name string, cause error) Classifier {
	return &unavailableClassifier{name: name, cause: cause}
}

func (u *unavailableClassifier) Name() string { return u.name }

func (u *unavailableClassifier) Predict(ctx context.Context, row []float32) (Class, error) {
	return 0, Unavailable(u.name, u.cause)
}

func (u *unavailableClassifier) PredictProba(ctx context.Context, row []float32) ([]float64, error) {
	return nil, Unavailable(u.name, u.cause)
}
