package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/classifier"
	"github.com/straja-ai/winegrade/internal/features"
	"github.com/straja-ai/winegrade/internal/report"
	"github.com/straja-ai/winegrade/internal/samples"
)

var qualityStyle = map[classifier.Class]struct {
	icon  string
	color lipgloss.Color
}{
	classifier.Low:    {"❌", lipgloss.Color("#ff4b4b")},
	classifier.Medium: {"⚠️", lipgloss.Color("#ffd700")},
	classifier.High:   {"✅", lipgloss.Color("#2ecc71")},
}

type renderer struct {
	out   io.Writer
	color bool
}

// newRenderer enables color only when out is a terminal.
func newRenderer(out io.Writer, noColor bool) *renderer {
	r := &renderer{out: out}
	if f, ok := out.(*os.File); ok && !noColor {
		r.color = term.IsTerminal(int(f.Fd()))
	}
	return r
}

func (r *renderer) style(s string, c lipgloss.Color, bold bool) string {
	if !r.color {
		return s
	}
	return lipgloss.NewStyle().Foreground(c).Bold(bold).Render(s)
}

func (r *renderer) indicator(c bands.Color) string {
	if !r.color {
		return "[" + string(c) + "]"
	}
	return r.style("●", lipgloss.Color(c.Hex()), false)
}

func (r *renderer) analysis(a *report.Analysis) {
	w := r.out
	fmt.Fprintln(w, r.style("Prediction Results", "", true))
	if d := a.Classification; d != nil {
		q := qualityStyle[d.Final]
		fmt.Fprintf(w, "  %s %s\n", q.icon, r.style(d.Final.Label(), q.color, true))
		fmt.Fprintf(w, "  Model Used: %s\n", d.ModelUsed())
		fmt.Fprintf(w, "  Confidence: %s\n", d.DisplayConfidence())
	} else {
		fmt.Fprintf(w, "  classification unavailable: %v\n", a.ClassificationErr)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.style("Parameter Analysis", "", true))
	for _, e := range a.Report.Entries {
		fmt.Fprintf(w, "  %s %s: %s\n", r.indicator(e.Color), e.Name, e.Text())
	}
}

func (r *renderer) samples(wines []samples.Wine) {
	headers := []string{"#"}
	for _, f := range features.CanonicalOrder {
		headers = append(headers, string(f))
	}
	headers = append(headers, "quality")

	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for _, wine := range wines {
		row := []string{strconv.Itoa(wine.Index)}
		for _, f := range features.CanonicalOrder {
			row = append(row, strconv.FormatFloat(wine.Vector.Value(f), 'f', -1, 64))
		}
		row = append(row, strconv.Itoa(wine.Quality))
		t.Row(row...)
	}
	fmt.Fprintln(r.out, t.String())
}

func (r *renderer) bands(tables []bands.Table) {
	t := table.New().Border(lipgloss.NormalBorder()).
		Headers("Parameter", "Low", "Slightly Low", "Ideal", "High", "Excessive", "Suggested input")
	for _, tb := range tables {
		f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
		rng := features.SuggestedRange[tb.Parameter]
		t.Row(
			tb.Name,
			r.cell(tb, bands.Low, "< "+f(tb.LowMin)),
			r.cell(tb, bands.SlightlyLow, "["+f(tb.LowMin)+", "+f(tb.IdealMin)+")"),
			r.cell(tb, bands.Ideal, "["+f(tb.IdealMin)+", "+f(tb.IdealMax)+"]"),
			r.cell(tb, bands.High, "("+f(tb.IdealMax)+", "+f(tb.HighMax)+"]"),
			r.cell(tb, bands.Excessive, "> "+f(tb.HighMax)),
			f(rng.Min)+" to "+f(rng.Max),
		)
	}
	fmt.Fprintln(r.out, t.String())
}

func (r *renderer) cell(tb bands.Table, t bands.Tier, text string) string {
	c := tb.Bands[t].Color
	if !r.color {
		return text + " " + string(c)
	}
	return r.style(text, lipgloss.Color(c.Hex()), false)
}
