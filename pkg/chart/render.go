// Package chart draws the report views as PNG or SVG images.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// Format is an image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	case "":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// Ext is the file extension, dot included.
func (f Format) Ext() string { return "." + string(f) }

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

// Renderer draws views with fixed dimensions.
type Renderer struct {
	Format Format
	Width  int
	Height int
}

func NewRenderer(format Format) *Renderer {
	return &Renderer{Format: format, Width: 1200, Height: 600}
}

var seriesColors = map[string]drawing.Color{
	report.SeriesEstimate:  chart.ColorBlue,
	report.SeriesTimeSpent: chart.ColorRed,
	report.SeriesSecondary: chart.ColorGreen,
}

// seriesStyle draws lines with dots so single points stay visible.
func seriesStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotWidth:    4,
		DotColor:    col,
	}
}

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 1,
		FillColor:   col.WithAlpha(160),
	}
}

// groupWidth is the share of a project slot covered by its bars.
const groupWidth = 0.8

// barPath returns the outline of one series' bars. Project i owns the slot
// [i-0.5, i+0.5]; series k of count draws the k-th bar of the group. The
// outline returns to zero between bars, so filling it down to the axis
// leaves only the bars.
func barPath(values []float64, k, count int) (xs, ys []float64) {
	w := groupWidth / float64(count)
	xs = make([]float64, 0, 4*len(values))
	ys = make([]float64, 0, 4*len(values))
	for i, y := range values {
		x0 := float64(i) - groupWidth/2 + float64(k)*w
		x1 := x0 + w
		xs = append(xs, x0, x0, x1, x1)
		ys = append(ys, 0, y, y, 0)
	}
	return xs, ys
}

// Comparison draws the estimate vs time spent chart as grouped bars, one
// group per project in view order.
func (r *Renderer) Comparison(w io.Writer, v report.ComparisonView) error {
	if v.NoData {
		return r.placeholder(w, "Estimate vs time spent", "No data to display")
	}

	n := len(v.Labels)
	// go-chart derives the X range from the ticks, so the slot edges are
	// ticks too. Without them a single project has no range.
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, id := range v.Labels {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: string(id)})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})

	all := v.AllSeries()
	var series []chart.Series
	maxY := 0.0
	for k, s := range all {
		for _, y := range s.Values {
			maxY = math.Max(maxY, y)
		}
		xs, ys := barPath(s.Values, k, len(all))
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   barStyle(seriesColors[s.Name]),
		})
	}

	ch := chart.Chart{
		Title:      "Estimate vs time spent",
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 60}},
		XAxis: chart.XAxis{
			Name:  "Project",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Style: chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:  "Hours",
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(r.Format.provider(), w)
}

// Distribution draws the issue distribution pie.
func (r *Renderer) Distribution(w io.Writer, v report.DistributionView) error {
	if v.NoData {
		return r.placeholder(w, "Issues per project", "No data to display")
	}
	values := make([]chart.Value, 0, len(v.Categories))
	for i, c := range v.Categories {
		if c.Count <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s %d (%d%%)", c.Label, c.Count, v.Share(i)),
		})
	}
	if len(values) == 0 {
		return r.placeholder(w, "Issues per project", "No data to display")
	}
	pie := chart.PieChart{
		Title:  "Issues per project",
		Width:  r.Height,
		Height: r.Height,
		Values: values,
	}
	return pie.Render(r.Format.provider(), w)
}

// Dashboard draws actual vs projected effort over time.
func (r *Renderer) Dashboard(w io.Writer, ts dashboard.TimeSeries) error {
	n := ts.Len()
	if n == 0 {
		return r.placeholder(w, "Time spent vs projection", "No data to display")
	}
	times := make([]time.Time, 0, n)
	actual := make([]float64, 0, n)
	projected := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t, err := time.Parse("2006-01-02", ts.Dates[i])
		if err != nil {
			return fmt.Errorf("dashboard date %q: %w", ts.Dates[i], err)
		}
		times = append(times, t)
		actual = append(actual, ts.ActualTimeSpent[i])
		projected = append(projected, ts.ProjectedTimeSpent[i])
	}
	// A single day has no X range; stretch it over one more day.
	if n == 1 {
		times = append(times, times[0].Add(24*time.Hour))
		actual = append(actual, actual[0])
		projected = append(projected, projected[0])
	}

	ch := chart.Chart{
		Title:      "Time spent vs projection",
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02"),
		},
		YAxis: chart.YAxis{Name: "Person-days"},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Actual", XValues: times, YValues: actual, Style: seriesStyle(chart.ColorBlue)},
			chart.TimeSeries{Name: "Projected", XValues: times, YValues: projected, Style: seriesStyle(chart.ColorAlternateGray)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(r.Format.provider(), w)
}

// placeholder draws an empty frame titled with msg.
func (r *Renderer) placeholder(w io.Writer, title, msg string) error {
	ch := chart.Chart{
		Title:  title + ": " + msg,
		Width:  r.Width,
		Height: r.Height,
		XAxis:  chart.XAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:  chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: chart.ColorLightGray, StrokeWidth: 1},
			},
		},
	}
	return ch.Render(r.Format.provider(), w)
}

// niceMax leaves headroom above the tallest point and keeps the range
// non-empty for all-zero series.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}
