package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowUsesCanonicalOrder(t *testing.T) {
	v := Vector{Alcohol: 12, VolatileAcidity: 0.27, Chlorides: 0.035, FreeSO2: 37, TotalSO2: 150, FixedAcidity: 7.25}

	row := v.Row()
	require.Len(t, row, 6)
	assert.Equal(t, []float32{12, 0.035, 150, 0.27, 37, 7.25}, row)
	assert.Equal(t, []string{"Alc", "Cl", "TSO2", "VA", "FSO2", "FA"}, Columns())
}

func TestValidateRejectsNonFinite(t *testing.T) {
	cases := []struct {
		name  string
		v     Vector
		field Field
	}{
		{name: "nan alcohol", v: Vector{Alcohol: math.NaN()}, field: Alcohol},
		{name: "inf chlorides", v: Vector{Chlorides: math.Inf(1)}, field: Chlorides},
		{name: "neg inf fixed acidity", v: Vector{FixedAcidity: math.Inf(-1)}, field: FixedAcidity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.v.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	require.NoError(t, Default.Validate())
}

func TestFromMap(t *testing.T) {
	good := map[string]any{"Alc": 12.0, "VA": 0.27, "Cl": 0.035, "FSO2": 37, "TSO2": int64(150), "FA": 7.25}

	v, err := FromMap(good)
	require.NoError(t, err)
	assert.Equal(t, Vector{Alcohol: 12, VolatileAcidity: 0.27, Chlorides: 0.035, FreeSO2: 37, TotalSO2: 150, FixedAcidity: 7.25}, v)

	back, err := FromMap(v.ToMap())
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestFromMapFailures(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{"Alc": 12.0, "VA": 0.27, "Cl": 0.035, "FSO2": 37.0, "TSO2": 150.0, "FA": 7.25}
	}

	cases := []struct {
		name   string
		mutate func(m map[string]any)
		field  Field
	}{
		{name: "missing field", mutate: func(m map[string]any) { delete(m, "Cl") }, field: Chlorides},
		{name: "null field", mutate: func(m map[string]any) { m["VA"] = nil }, field: VolatileAcidity},
		{name: "string field", mutate: func(m map[string]any) { m["FSO2"] = "37" }, field: FreeSO2},
		{name: "bool field", mutate: func(m map[string]any) { m["FA"] = true }, field: FixedAcidity},
		{name: "nan field", mutate: func(m map[string]any) { m["Alc"] = math.NaN() }, field: Alcohol},
		{name: "unknown field", mutate: func(m map[string]any) { m["pH"] = 3.2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base()
			tc.mutate(in)

			_, err := FromMap(in)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	_, err := FromMap(nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSuggestedRangeIsAdvisory(t *testing.T) {
	r := SuggestedRange[Alcohol]
	assert.True(t, r.Contains(11.5))
	assert.False(t, r.Contains(16))

	v := Default
	v.Alcohol = 16
	require.NoError(t, v.Validate())
}
