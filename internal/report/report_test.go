package report

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/classifier"
	"github.com/straja-ai/winegrade/internal/features"
)

var sample = features.Vector{Alcohol: 9.0, VolatileAcidity: 0.27, Chlorides: 0.019, FreeSO2: 37, TotalSO2: 150, FixedAcidity: 7.25}

func TestAssembleRestoresDisplayOrder(t *testing.T) {
	entries, err := bands.Analyze(sample)
	require.NoError(t, err)

	reversed := make([]bands.Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	r, err := Assemble(reversed)
	require.NoError(t, err)
	assert.Equal(t, entries, r.Entries)
}

func TestAssembleRejectsIncomplete(t *testing.T) {
	entries, err := bands.Analyze(sample)
	require.NoError(t, err)

	_, err = Assemble(entries[:5])
	require.ErrorIs(t, err, ErrIncomplete)

	dup := append(append([]bands.Entry{}, entries...), entries[0])
	_, err = Assemble(dup)
	require.ErrorIs(t, err, ErrIncomplete)

	unknown := append([]bands.Entry{}, entries[:5]...)
	unknown = append(unknown, bands.Entry{Parameter: "pH"})
	_, err = Assemble(unknown)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestReportHelpers(t *testing.T) {
	entries, err := bands.Analyze(sample)
	require.NoError(t, err)
	r, err := Assemble(entries)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Count(bands.Red))
	assert.Equal(t, 1, r.Count(bands.Orange))
	assert.Equal(t, 4, r.Count(bands.Green))
	require.Len(t, r.Attention(), 2)
	assert.Contains(t, r.Text(), "Alcohol: 9.0% (Low) - Actions:")
}

func TestServiceJoinsBothHalves(t *testing.T) {
	arb := arbiter.New(classifier.NewStatic("rf", 0.05, 0.85, 0.10), classifier.NewStatic("dt", 0.7, 0.2, 0.1))

	a, err := NewService(arb).Analyze(context.Background(), sample)
	require.NoError(t, err)
	require.NotNil(t, a.Classification)
	assert.NoError(t, a.ClassificationErr)
	assert.Equal(t, classifier.Medium, a.Classification.Final)
	require.Len(t, a.Report.Entries, 6)
	assert.NotEqual(t, [16]byte{}, [16]byte(a.ID))
	assert.GreaterOrEqual(t, a.Timings.Total, a.Timings.Bands)
}

func TestServiceKeepsDiagnosticsWhenModelsFail(t *testing.T) {
	arb := arbiter.New(classifier.NewUnavailable("random_forest", errors.New("no runtime")), classifier.NewStatic("dt", 0.7, 0.2, 0.1))

	a, err := NewService(arb).Analyze(context.Background(), sample)
	require.NoError(t, err)
	assert.Nil(t, a.Classification)
	require.ErrorIs(t, a.ClassificationErr, classifier.ErrModelUnavailable)
	require.Len(t, a.Report.Entries, 6)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Nil(t, got["classification"])
	assert.Contains(t, got["classification_error"], "random_forest")
	assert.Contains(t, got, "timings")
}

func TestServiceValidationFailsWholeCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	rf := classifier.NewMockClassifier(ctrl)
	dt := classifier.NewMockClassifier(ctrl)

	v := sample
	v.Alcohol = math.NaN()

	a, err := NewService(arbiter.New(rf, dt)).Analyze(context.Background(), v)
	require.ErrorIs(t, err, features.ErrValidation)
	assert.Nil(t, a)
}

type countingObserver struct{ n int }

func (c *countingObserver) ObserveReport(context.Context, Report) { c.n++ }

func TestServiceObserver(t *testing.T) {
	obs := &countingObserver{}
	arb := arbiter.New(classifier.NewStatic("rf", 0.05, 0.85, 0.10), classifier.NewStatic("dt", 0.7, 0.2, 0.1))

	_, err := NewService(arb, WithObserver(obs)).Analyze(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.n)
}
