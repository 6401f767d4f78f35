package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-viper/mapstructure/v2"
)

// Field identifies one of the six chemistry measurements.
type Field string

const (
	Alcohol         Field = "Alc"
	VolatileAcidity Field = "VA"
	Chlorides       Field = "Cl"
	FreeSO2         Field = "FSO2"
	TotalSO2        Field = "TSO2"
	FixedAcidity    Field = "FA"
)

// CanonicalOrder is the column order the classifiers were trained on.
var CanonicalOrder = []Field{Alcohol, Chlorides, TotalSO2, VolatileAcidity, FreeSO2, FixedAcidity}

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError reports a missing, unknown, non-numeric or non-finite field.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid feature vector: " + e.Reason
	}
	return fmt.Sprintf("invalid feature %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Vector holds one wine sample. Units: Alc % vol, VA/Cl/FA g/L, FSO2/TSO2 mg/L.
type Vector struct {
	Alcohol         float64 `json:"Alc" mapstructure:"Alc"`
	VolatileAcidity float64 `json:"VA" mapstructure:"VA"`
	Chlorides       float64 `json:"Cl" mapstructure:"Cl"`
	FreeSO2         float64 `json:"FSO2" mapstructure:"FSO2"`
	TotalSO2        float64 `json:"TSO2" mapstructure:"TSO2"`
	FixedAcidity    float64 `json:"FA" mapstructure:"FA"`
}

// Value returns the measurement for f.
func (v Vector) Value(f Field) float64 {
	switch f {
	case Alcohol:
		return v.Alcohol
	case VolatileAcidity:
		return v.VolatileAcidity
	case Chlorides:
		return v.Chlorides
	case FreeSO2:
		return v.FreeSO2
	case TotalSO2:
		return v.TotalSO2
	case FixedAcidity:
		return v.FixedAcidity
	}
	return math.NaN()
}

// Validate rejects non-finite measurements.
func (v Vector) Validate() error {
	for _, f := range CanonicalOrder {
		x := v.Value(f)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &ValidationError{Field: f, Reason: "must be a finite number"}
		}
	}
	return nil
}

// Row returns the measurements in CanonicalOrder as model input.
func (v Vector) Row() []float32 {
	row := make([]float32, len(CanonicalOrder))
	for i, f := range CanonicalOrder {
		row[i] = float32(v.Value(f))
	}
	return row
}

// Columns returns the canonical column names, for logging.
func Columns() []string {
	out := make([]string, len(CanonicalOrder))
	for i, f := range CanonicalOrder {
		out[i] = string(f)
	}
	return out
}

// FromMap decodes loosely typed input (JSON bodies, CSV rows) into a Vector.
// Exactly the six short field names must be present and numeric.
func FromMap(in map[string]any) (Vector, error) {
	if in == nil {
		return Vector{}, &ValidationError{Reason: "no fields supplied"}
	}
	for _, f := range CanonicalOrder {
		raw, ok := in[string(f)]
		if !ok || raw == nil {
			return Vector{}, &ValidationError{Field: f, Reason: "missing"}
		}
		if !isNumeric(raw) {
			return Vector{}, &ValidationError{Field: f, Reason: fmt.Sprintf("not numeric (%T)", raw)}
		}
	}

	var v Vector
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &v,
		ErrorUnused: true,
		ErrorUnset:  true,
	})
	if err != nil {
		return Vector{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return Vector{}, &ValidationError{Reason: err.Error()}
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// ToMap is the inverse of FromMap.
func (v Vector) ToMap() map[string]any {
	out := make(map[string]any, len(CanonicalOrder))
	for _, f := range CanonicalOrder {
		out[string(f)] = v.Value(f)
	}
	return out
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
