package bands

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/straja-ai/winegrade/internal/features"
)

// Tier is the position of a measurement relative to its ideal band.
type Tier int

const (
	Ideal Tier = iota
	SlightlyLow
	Low
	High // slightly high, or simply "high" for some parameters
	Excessive
)

var tierNames = [...]string{"ideal", "slightly_low", "low", "high", "excessive"}

func (t Tier) String() string {
	if t < Ideal || t > Excessive {
		return "unknown"
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	for i, n := range tierNames {
		if n == string(b) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", b)
}

// Direction is "low", "high" or "" for Ideal.
func (t Tier) Direction() string {
	switch t {
	case SlightlyLow, Low:
		return "low"
	case High, Excessive:
		return "high"
	}
	return ""
}

// Color is the three-level severity indicator.
type Color string

const (
	Green  Color = "green"
	Orange Color = "orange"
	Red    Color = "red"
)

// Hex is the display color for report cards.
func (c Color) Hex() string {
	switch c {
	case Green:
		return "#2ecc71"
	case Orange:
		return "#f1c40f"
	case Red:
		return "#e74c3c"
	}
	return "#cccccc"
}

func (c Color) rank() int {
	switch c {
	case Green:
		return 0
	case Orange:
		return 1
	case Red:
		return 2
	}
	return -1
}

// Band is the static content of one tier of one parameter.
type Band struct {
	Color   Color    `json:"color"`
	Label   string   `json:"label"`
	Message string   `json:"message,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// Table is the declarative step function for one parameter:
//
//	x < LowMin                  Low
//	LowMin <= x < IdealMin      SlightlyLow
//	IdealMin <= x <= IdealMax   Ideal
//	IdealMax < x <= HighMax     High
//	x > HighMax                 Excessive
type Table struct {
	Parameter features.Field `json:"parameter"`
	Name      string         `json:"name"`
	Unit      string         `json:"unit"`
	Precision int            `json:"precision"`
	LowMin    float64        `json:"low_min"`
	IdealMin  float64        `json:"ideal_min"`
	IdealMax  float64        `json:"ideal_max"`
	HighMax   float64        `json:"high_max"`
	Bands     [5]Band        `json:"bands"`
}

// branch reports whether x falls in tier t. Classify takes the first
// matching branch; CheckPartition proves exactly one matches.
func (tb Table) branch(t Tier, x float64) bool {
	switch t {
	case Ideal:
		return tb.IdealMin <= x && x <= tb.IdealMax
	case SlightlyLow:
		return tb.LowMin <= x && x < tb.IdealMin
	case Low:
		return x < tb.LowMin
	case High:
		return tb.IdealMax < x && x <= tb.HighMax
	case Excessive:
		return x > tb.HighMax
	}
	return false
}

// Classify places x in its tier.
func (tb Table) Classify(x float64) Tier {
	for _, t := range []Tier{Ideal, SlightlyLow, Low, High} {
		if tb.branch(t, x) {
			return t
		}
	}
	return Excessive
}

// Format renders x with the parameter's precision and unit.
func (tb Table) Format(x float64) string {
	return strconv.FormatFloat(x, 'f', tb.Precision, 64) + tb.Unit
}

// Entry is one line of the diagnostic report.
type Entry struct {
	Parameter      features.Field `json:"parameter"`
	Name           string         `json:"name"`
	Tier           Tier           `json:"tier"`
	Color          Color          `json:"color"`
	TierLabel      string         `json:"tier_label"`
	Value          float64        `json:"value"`
	FormattedValue string         `json:"formatted_value"`
	Message        string         `json:"message"`
	Actions        []string       `json:"actions,omitempty"`
}

// Text renders the entry as a single report line.
func (e Entry) Text() string {
	var b strings.Builder
	b.WriteString(e.FormattedValue)
	b.WriteString(" (")
	b.WriteString(e.TierLabel)
	b.WriteString(") - ")
	if len(e.Actions) == 0 {
		b.WriteString(e.Message)
		return b.String()
	}
	b.WriteString("Actions:")
	for _, a := range e.Actions {
		b.WriteString(" • ")
		b.WriteString(a)
	}
	return b.String()
}

// Evaluate builds the entry for x.
func (tb Table) Evaluate(x float64) Entry {
	t := tb.Classify(x)
	band := tb.Bands[t]
	return Entry{
		Parameter:      tb.Parameter,
		Name:           tb.Name,
		Tier:           t,
		Color:          band.Color,
		TierLabel:      band.Label,
		Value:          x,
		FormattedValue: tb.Format(x),
		Message:        band.Message,
		Actions:        append([]string(nil), band.Actions...),
	}
}

// Analyze evaluates every parameter of v independently, in display order.
func Analyze(v features.Vector) ([]Entry, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(tables))
	for _, tb := range tables {
		out = append(out, tb.Evaluate(v.Value(tb.Parameter)))
	}
	return out, nil
}

// Classify places value in its tier for param.
func Classify(param features.Field, value float64) (Tier, error) {
	tb, ok := Lookup(param)
	if !ok {
		return 0, fmt.Errorf("no band table for %q", param)
	}
	return tb.Classify(value), nil
}

// Lookup returns the table for param.
func Lookup(param features.Field) (Table, bool) {
	for _, tb := range tables {
		if tb.Parameter == param {
			return tb, true
		}
	}
	return Table{}, false
}

// Tables returns a copy of every table in display order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// DisplayOrder is the fixed report order.
func DisplayOrder() []features.Field {
	out := make([]features.Field, len(tables))
	for i, tb := range tables {
		out[i] = tb.Parameter
	}
	return out
}

// CheckPartition verifies that the boundaries are ordered and that every
// boundary, and the values either side of it, match exactly one branch.
func CheckPartition(tb Table) error {
	if !(tb.LowMin < tb.IdealMin && tb.IdealMin <= tb.IdealMax && tb.IdealMax < tb.HighMax) {
		return fmt.Errorf("%s: boundaries out of order: %v %v %v %v", tb.Name, tb.LowMin, tb.IdealMin, tb.IdealMax, tb.HighMax)
	}
	probes := []float64{math.Inf(-1), math.Inf(1), -math.MaxFloat64, math.MaxFloat64, 0}
	for _, b := range []float64{tb.LowMin, tb.IdealMin, tb.IdealMax, tb.HighMax} {
		probes = append(probes, math.Nextafter(b, math.Inf(-1)), b, math.Nextafter(b, math.Inf(1)))
	}
	for _, x := range probes {
		n := 0
		for t := Ideal; t <= Excessive; t++ {
			if tb.branch(t, x) {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("%s: value %v matches %d tiers", tb.Name, x, n)
		}
	}
	return nil
}

// ErrSeverityGap marks a table whose severity does not escalate to red at
// both extremes, or decreases moving away from the ideal band.
var ErrSeverityGap = errors.New("severity does not escalate")

// CheckSeverity reports severity anomalies without changing classification.
func CheckSeverity(tb Table) error {
	if tb.Bands[Ideal].Color != Green {
		return fmt.Errorf("%s: ideal band is %s: %w", tb.Name, tb.Bands[Ideal].Color, ErrSeverityGap)
	}
	for _, side := range [][2]Tier{{SlightlyLow, Low}, {High, Excessive}} {
		near, far := tb.Bands[side[0]].Color, tb.Bands[side[1]].Color
		if far.rank() < near.rank() {
			return fmt.Errorf("%s: %s side de-escalates from %s to %s: %w", tb.Name, side[0].Direction(), near, far, ErrSeverityGap)
		}
		if far != Red {
			return fmt.Errorf("%s: %s end tops out at %s: %w", tb.Name, side[0].Direction(), far, ErrSeverityGap)
		}
	}
	return nil
}
