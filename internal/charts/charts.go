// Package charts renders the dashboard plots as SVG.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/JonMunkholm/cable-exports/internal/metrics"
	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// ErrUnknownChart is returned by Render for a name not in Names.
var ErrUnknownChart = errors.New("unknown chart")

// Default SVG size.
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	colorUp   = color.RGBA{R: 0x1B, G: 0x99, B: 0x8B, A: 0xFF}
	colorDown = color.RGBA{R: 0xC7, G: 0x3E, B: 0x1D, A: 0xFF}
	color2024 = color.RGBA{R: 0x9D, G: 0xB4, B: 0xC0, A: 0xFF}
	color2025 = color.RGBA{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF}
)

// Builder draws one chart from a filtered view.
type Builder func(view rollup.FilteredView, topN int) (*plot.Plot, error)

var builders = map[string]Builder{
	"regions":       RegionTotals,
	"region-years":  RegionYears,
	"top-countries": TopCountries,
	"growth":        GrowthBars,
	"scatter":       YearScatter,
}

// Names lists the chart names accepted by Render, sorted.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render draws chart name for view and writes it to w as SVG.
func Render(w io.Writer, name string, view rollup.FilteredView, topN int) error {
	build, ok := builders[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}

	p, err := build(view, topN)
	if err != nil {
		return fmt.Errorf("build %s chart: %w", name, err)
	}
	return WriteSVG(w, p, Width, Height)
}

// WriteSVG encodes p as an SVG document of the given size.
func WriteSVG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return fmt.Errorf("create svg canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// RegionTotals draws one horizontal bar per region, in the region's colour.
func RegionTotals(view rollup.FilteredView, _ int) (*plot.Plot, error) {
	title := fmt.Sprintf("Total exports by region (%s)", view.Currency.Label())
	if view.Empty() {
		return noData(title), nil
	}

	regions := append([]rollup.RegionRollup(nil), view.Regions...)
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Total.Value(view.Currency) < regions[j].Total.Value(view.Currency)
	})

	p := newPlot(title)
	p.X.Label.Text = view.Currency.Label()

	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Region

		// One series per region so each bar keeps its own colour.
		vals := make(plotter.Values, len(regions))
		vals[i] = r.Total.Value(view.Currency)

		bars, err := plotter.NewBarChart(vals, vg.Points(18))
		if err != nil {
			return nil, err
		}
		bars.Horizontal = true
		bars.Color = hexColor(model.Region(r.Region).Color())
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalY(names...)
	return p, nil
}

// RegionYears draws grouped 2024 and 2025 bars per region.
func RegionYears(view rollup.FilteredView, _ int) (*plot.Plot, error) {
	title := fmt.Sprintf("2024 vs 2025 by region (%s)", view.Currency.Label())
	if view.Empty() {
		return noData(title), nil
	}

	p := newPlot(title)
	p.Y.Label.Text = view.Currency.Label()

	v24 := make(plotter.Values, len(view.Regions))
	v25 := make(plotter.Values, len(view.Regions))
	names := make([]string, len(view.Regions))
	for i, r := range view.Regions {
		v24[i], v25[i], _ = r.Values(view.Currency)
		names[i] = r.Region
	}

	w := vg.Points(16)
	b24, err := plotter.NewBarChart(v24, w)
	if err != nil {
		return nil, err
	}
	b24.Color = color2024
	b24.LineStyle.Width = vg.Length(0)
	b24.Offset = -w / 2

	b25, err := plotter.NewBarChart(v25, w)
	if err != nil {
		return nil, err
	}
	b25.Color = color2025
	b25.LineStyle.Width = vg.Length(0)
	b25.Offset = w / 2

	p.Add(b24, b25)
	p.Legend.Add("2024", b24)
	p.Legend.Add("2025", b25)
	p.Legend.Top = true
	p.NominalX(names...)
	tiltX(p)
	return p, nil
}

// TopCountries draws the topN countries by total value, largest on top.
func TopCountries(view rollup.FilteredView, topN int) (*plot.Plot, error) {
	title := fmt.Sprintf("Top %d markets (%s)", topN, view.Currency.Label())
	if view.Empty() {
		return noData(title), nil
	}

	top := metrics.TopByValue(view.Countries, view.Currency, topN)

	vals := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, c := range top {
		j := len(top) - 1 - i
		vals[j] = c.Total.Value(view.Currency)
		names[j] = c.Country
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = color2025
	bars.LineStyle.Width = vg.Length(0)

	p := newPlot(title)
	p.X.Label.Text = view.Currency.Label()
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// GrowthBars draws the topN countries by YoY growth, green when positive
// and red when negative.
func GrowthBars(view rollup.FilteredView, topN int) (*plot.Plot, error) {
	title := fmt.Sprintf("Top %d by YoY growth (%%)", topN)
	if view.Empty() {
		return noData(title), nil
	}

	top := metrics.TopByGrowth(view.Countries, view.Currency, topN)

	up := make(plotter.Values, len(top))
	down := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, c := range top {
		g := c.Growth(view.Currency)
		if g >= 0 {
			up[i] = g
		} else {
			down[i] = g
		}
		names[i] = c.Country
	}

	p := newPlot(title)
	p.Y.Label.Text = "YoY growth %"
	for _, s := range []struct {
		vals plotter.Values
		c    color.Color
	}{{up, colorUp}, {down, colorDown}} {
		bars, err := plotter.NewBarChart(s.vals, vg.Points(14))
		if err != nil {
			return nil, err
		}
		bars.Color = s.c
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalX(names...)
	tiltX(p)
	return p, nil
}

// YearScatter plots each country's 2024 value against its 2025 value with
// a dashed equal-value line.
func YearScatter(view rollup.FilteredView, _ int) (*plot.Plot, error) {
	title := fmt.Sprintf("2024 vs 2025 by country (%s)", view.Currency.Label())
	if view.Empty() {
		return noData(title), nil
	}

	p := newPlot(title)
	p.X.Label.Text = "2024 " + view.Currency.Label()
	p.Y.Label.Text = "2025 " + view.Currency.Label()
	p.Add(plotter.NewGrid())

	byRegion := make(map[string]plotter.XYs)
	var order []string
	var maxV float64
	for _, c := range view.Countries {
		v24, v25, _ := c.Values(view.Currency)
		if _, ok := byRegion[c.Region]; !ok {
			order = append(order, c.Region)
		}
		byRegion[c.Region] = append(byRegion[c.Region], plotter.XY{X: v24, Y: v25})
		maxV = math.Max(maxV, math.Max(v24, v25))
	}

	for _, region := range order {
		s, err := plotter.NewScatter(byRegion[region])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = hexColor(model.Region(region).Color())
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(region, s)
	}

	equal := plotter.NewFunction(func(x float64) float64 { return x })
	equal.Color = color.Gray{Y: 0x66}
	equal.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(equal)

	p.X.Min, p.Y.Min = 0, 0
	if maxV > 0 {
		p.X.Max, p.Y.Max = maxV*1.05, maxV*1.05
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	return p
}

func noData(title string) *plot.Plot {
	p := newPlot(title)
	p.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{"No data"},
	})
	if err == nil {
		p.Add(labels)
	}
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p
}

func tiltX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func hexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color2025
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
