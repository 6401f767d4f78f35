package samples

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straja-ai/winegrade/internal/features"
)

func TestAllLoadsEmbeddedCatalogue(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	first := all[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 6, first.Quality)
	assert.InDelta(t, 8.8, first.Vector.Alcohol, 1e-9)
	assert.InDelta(t, 0.045, first.Vector.Chlorides, 1e-9)
	assert.InDelta(t, 7.0, first.Vector.FixedAcidity, 1e-9)

	for i, w := range all {
		assert.Equal(t, i, w.Index)
		assert.NoError(t, w.Vector.Validate())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a, err := All()
	require.NoError(t, err)
	a[0].Quality = 99

	b, err := All()
	require.NoError(t, err)
	assert.Equal(t, 6, b[0].Quality)
}

func TestGet(t *testing.T) {
	w, err := Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Index)

	_, err = Get(-1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = Get(10000)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseAnyColumnOrder(t *testing.T) {
	in := "quality,FA,FSO2,VA,TSO2,Cl,Alc\n5,7.1,30,0.31,140,0.041,10.2\n"

	wines, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, wines, 1)
	assert.Equal(t, features.Vector{Alcohol: 10.2, VolatileAcidity: 0.31, Chlorides: 0.041, FreeSO2: 30, TotalSO2: 140, FixedAcidity: 7.1}, wines[0].Vector)
	assert.Equal(t, 5, wines[0].Quality)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no quality":    "Alc,Cl,TSO2,VA,FSO2,FA\n1,2,3,4,5,6\n",
		"bad float":     "Alc,Cl,TSO2,VA,FSO2,FA,quality\nx,2,3,4,5,6,5\n",
		"bad quality":   "Alc,Cl,TSO2,VA,FSO2,FA,quality\n1,2,3,4,5,6,five\n",
		"missing field": "Alc,Cl,TSO2,VA,FSO2,quality\n1,2,3,4,5,6\n",
		"extra field":   "Alc,Cl,TSO2,VA,FSO2,FA,pH,quality\n1,2,3,4,5,6,3.2,6\n",
		"empty":         "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			require.Error(t, err)
		})
	}
}

func TestRounded(t *testing.T) {
	w := Wine{Vector: features.Vector{Alcohol: 11.04, VolatileAcidity: 0.2749, Chlorides: 0.045678, FreeSO2: 37.46, TotalSO2: 150.6, FixedAcidity: 7.25}}

	r := w.Rounded().Vector
	assert.InDelta(t, 11.0, r.Alcohol, 1e-9)
	assert.InDelta(t, 0.27, r.VolatileAcidity, 1e-9)
	assert.InDelta(t, 0.0457, r.Chlorides, 1e-9)
	assert.InDelta(t, 37.5, r.FreeSO2, 1e-9)
	assert.InDelta(t, 150.6, r.TotalSO2, 1e-9)
	assert.InDelta(t, 7.25, r.FixedAcidity, 1e-9)
}
