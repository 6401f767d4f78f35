package features

// Range is an advisory input domain. The analysis never enforces it.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Contains reports whether x lies inside the advisory domain.
func (r Range) Contains(x float64) bool { return x >= r.Min && x <= r.Max }

// SuggestedRange is the input domain offered by interactive front ends.
var SuggestedRange = map[Field]Range{
	Alcohol:         {Min: 8.0, Max: 15.0, Step: 0.1},
	Chlorides:       {Min: 0.010, Max: 0.170, Step: 0.001},
	TotalSO2:        {Min: 20, Max: 350, Step: 1},
	VolatileAcidity: {Min: 0.10, Max: 0.70, Step: 0.01},
	FreeSO2:         {Min: 5, Max: 90, Step: 1},
	FixedAcidity:    {Min: 3.0, Max: 15.0, Step: 0.1},
}

// Default is the starting point of an empty input form.
var Default = Vector{
	Alcohol:         11.5,
	VolatileAcidity: 0.3,
	Chlorides:       0.050,
	FreeSO2:         40,
	TotalSO2:        140,
	FixedAcidity:    7.4,
}
