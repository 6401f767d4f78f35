// Package samples serves the embedded catalogue of example wines.
package samples

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/straja-ai/winegrade/internal/features"
)

//go:embed sample.csv
var sampleCSV []byte

// ErrNotFound is returned for an index outside the catalogue.
var ErrNotFound = errors.New("sample not found")

// Wine is one catalogue row with its tasting score.
type Wine struct {
	Index   int             `json:"index"`
	Vector  features.Vector `json:"features"`
	Quality int             `json:"quality"`
}

// displayDecimals is the rounding applied to the catalogue view.
var displayDecimals = map[features.Field]int{
	features.FreeSO2:         1,
	features.VolatileAcidity: 2,
	features.Chlorides:       4,
	features.Alcohol:         1,
}

// Rounded returns w with the display rounding applied.
func (w Wine) Rounded() Wine {
	m := w.Vector.ToMap()
	for f, n := range displayDecimals {
		p := math.Pow10(n)
		m[string(f)] = math.Round(m[string(f)].(float64)*p) / p
	}
	v, err := features.FromMap(m)
	if err != nil {
		return w
	}
	w.Vector = v
	return w
}

var (
	loadOnce sync.Once
	loaded   []Wine
	loadErr  error
)

// All returns the catalogue in file order.
func All() ([]Wine, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(bytes.NewReader(sampleCSV))
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Wine, len(loaded))
	copy(out, loaded)
	return out, nil
}

// Get returns the wine at index i.
func Get(i int) (Wine, error) {
	all, err := All()
	if err != nil {
		return Wine{}, err
	}
	if i < 0 || i >= len(all) {
		return Wine{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, i, len(all))
	}
	return all[i], nil
}

// Parse reads a catalogue with a header row naming the six short field
// names and a quality column, in any order.
func Parse(r io.Reader) ([]Wine, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	qualityCol := -1
	for i, h := range header {
		if h == "quality" {
			qualityCol = i
		}
	}
	if qualityCol < 0 {
		return nil, errors.New("read header: missing quality column")
	}

	var out []Wine
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		m := make(map[string]any, len(header)-1)
		var quality int
		for i, h := range header {
			if i == qualityCol {
				quality, err = strconv.Atoi(rec[i])
				if err != nil {
					return nil, fmt.Errorf("line %d: quality: %w", line, err)
				}
				continue
			}
			x, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, h, err)
			}
			m[h] = x
		}
		v, err := features.FromMap(m)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, Wine{Index: len(out), Vector: v, Quality: quality})
	}
	return out, nil
}
