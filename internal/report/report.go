// Package report orders diagnostic entries for display and joins them with
// the arbitration result.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/features"
)

// ErrIncomplete is returned when entries are missing, duplicated or unknown.
var ErrIncomplete = errors.New("incomplete report")

// Report is the six diagnostic entries in display order.
type Report struct {
	Entries []bands.Entry `json:"entries"`
}

// Assemble places entries in the fixed display order. It never drops an
// entry and never depends on the classification.
func Assemble(entries []bands.Entry) (Report, error) {
	order := bands.DisplayOrder()
	byParam := make(map[features.Field]bands.Entry, len(entries))
	for _, e := range entries {
		if _, dup := byParam[e.Parameter]; dup {
			return Report{}, fmt.Errorf("%w: duplicate entry for %s", ErrIncomplete, e.Parameter)
		}
		byParam[e.Parameter] = e
	}
	if len(byParam) != len(order) {
		return Report{}, fmt.Errorf("%w: got %d entries, want %d", ErrIncomplete, len(byParam), len(order))
	}

	out := make([]bands.Entry, 0, len(order))
	for _, p := range order {
		e, ok := byParam[p]
		if !ok {
			return Report{}, fmt.Errorf("%w: missing entry for %s", ErrIncomplete, p)
		}
		out = append(out, e)
	}
	return Report{Entries: out}, nil
}

// Count returns how many entries carry color c.
func (r Report) Count(c bands.Color) int {
	n := 0
	for _, e := range r.Entries {
		if e.Color == c {
			n++
		}
	}
	return n
}

// Attention returns the entries outside the ideal band.
func (r Report) Attention() []bands.Entry {
	var out []bands.Entry
	for _, e := range r.Entries {
		if e.Tier != bands.Ideal {
			out = append(out, e)
		}
	}
	return out
}

// Text renders one "Name: line" per entry.
func (r Report) Text() string {
	var b strings.Builder
	for _, e := range r.Entries {
		b.WriteString(e.Name)
		b.WriteString(": ")
		b.WriteString(e.Text())
		b.WriteByte('\n')
	}
	return b.String()
}
