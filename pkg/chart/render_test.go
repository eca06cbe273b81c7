package chart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testDataset(t *testing.T, n int) *report.Dataset {
	t.Helper()
	src := report.Source{
		ProjectEstimates:    map[string]float64{},
		ProjectTimeSpent:    map[string]float64{},
		ProjectCLMEstimates: map[string]float64{},
		ProjectCounts:       map[string]int{},
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("P%02d", i)
		src.ProjectEstimates[id] = float64(10 * (i + 1))
		src.ProjectTimeSpent[id] = float64(7 * (i + 1))
		src.ProjectCounts[id] = i + 1
		if i%2 == 0 {
			src.ProjectCLMEstimates[id] = float64(12 * (i + 1))
		}
	}
	ds, err := report.NewDataset(src)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"png", FormatPNG, false},
		{"SVG", FormatSVG, false},
		{"", FormatPNG, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRenderer_Comparison(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"single project", 1},
		{"several projects", 5},
		{"over the limit", 40},
		{"no data", 0},
	}
	for _, tt := range tests {
		for _, format := range []Format{FormatPNG, FormatSVG} {
			t.Run(tt.name+"/"+string(format), func(t *testing.T) {
				view := report.BuildComparison(testDataset(t, tt.n), nil, report.ComparisonLimit)
				var buf bytes.Buffer
				if err := NewRenderer(format).Comparison(&buf, view); err != nil {
					t.Fatalf("Comparison: %v", err)
				}
				assertImage(t, format, buf.Bytes())
			})
		}
	}
}

func TestRenderer_Comparison_OneProjectLeft(t *testing.T) {
	ds, err := report.NewDataset(report.Source{
		ProjectEstimates: map[string]float64{"A": 10, "B": 20},
		ProjectTimeSpent: map[string]float64{"A": 5, "B": 30},
		ProjectCounts:    map[string]int{"A": 1, "B": 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	view := report.BuildComparison(ds, report.NewExclusionSet("A"), report.ComparisonLimit)
	if len(view.Labels) != 1 || view.Labels[0] != "B" {
		t.Fatalf("labels = %v, want [B]", view.Labels)
	}
	for _, format := range []Format{FormatPNG, FormatSVG} {
		var buf bytes.Buffer
		if err := NewRenderer(format).Comparison(&buf, view); err != nil {
			t.Fatalf("Comparison %s: %v", format, err)
		}
		assertImage(t, format, buf.Bytes())
	}
}

func TestBarPath(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		k      int
		count  int
	}{
		{"one project, first of two", []float64{7}, 0, 2},
		{"one project, second of two", []float64{7}, 1, 2},
		{"three projects, middle of three", []float64{1, 0, 3}, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xs, ys := barPath(tt.values, tt.k, tt.count)
			if len(xs) != 4*len(tt.values) || len(ys) != len(xs) {
				t.Fatalf("got %d xs and %d ys for %d values", len(xs), len(ys), len(tt.values))
			}
			for i, v := range tt.values {
				x0, x1 := xs[4*i], xs[4*i+3]
				if x1 <= x0 {
					t.Errorf("bar %d has no width: [%v, %v]", i, x0, x1)
				}
				slot := float64(i)
				if x0 < slot-0.5 || x1 > slot+0.5 {
					t.Errorf("bar %d [%v, %v] leaves its slot", i, x0, x1)
				}
				if ys[4*i] != 0 || ys[4*i+1] != v || ys[4*i+2] != v || ys[4*i+3] != 0 {
					t.Errorf("bar %d heights = %v, want 0 %v %v 0", i, ys[4*i:4*i+4], v, v)
				}
			}
			for i := 1; i < len(xs); i++ {
				if xs[i] < xs[i-1] {
					t.Fatalf("xs not ascending at %d: %v", i, xs)
				}
			}
		})
	}
}

func TestRenderer_Distribution(t *testing.T) {
	for _, n := range []int{0, 1, 3, 45} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			view := report.BuildDistribution(testDataset(t, n), report.DistributionTop)
			var buf bytes.Buffer
			if err := NewRenderer(FormatPNG).Distribution(&buf, view); err != nil {
				t.Fatalf("Distribution: %v", err)
			}
			assertImage(t, FormatPNG, buf.Bytes())
		})
	}
}

func TestRenderer_Dashboard(t *testing.T) {
	tests := []struct {
		name string
		ts   dashboard.TimeSeries
		err  bool
	}{
		{"empty", dashboard.TimeSeries{}, false},
		{"one day", dashboard.TimeSeries{Dates: []string{"2025-03-03"}, ActualTimeSpent: []float64{4}, ProjectedTimeSpent: []float64{5}}, false},
		{"week", dashboard.TimeSeries{
			Dates:              []string{"2025-03-03", "2025-03-04", "2025-03-05"},
			ActualTimeSpent:    []float64{4, 5, 7},
			ProjectedTimeSpent: []float64{5, 6, 7},
		}, false},
		{"bad date", dashboard.TimeSeries{Dates: []string{"03/03/2025"}, ActualTimeSpent: []float64{1}, ProjectedTimeSpent: []float64{1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewRenderer(FormatPNG).Dashboard(&buf, tt.ts)
			if (err != nil) != tt.err {
				t.Fatalf("Dashboard error = %v, want error %v", err, tt.err)
			}
			if !tt.err {
				assertImage(t, FormatPNG, buf.Bytes())
			}
		})
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir, NewRenderer(FormatSVG))
	ds := testDataset(t, 3)

	if err := sink.ApplyComparison(report.BuildComparison(ds, nil, report.ComparisonLimit)); err != nil {
		t.Fatalf("ApplyComparison: %v", err)
	}
	if err := sink.ApplyDistribution(report.BuildDistribution(ds, report.DistributionTop)); err != nil {
		t.Fatalf("ApplyDistribution: %v", err)
	}

	want := []string{filepath.Join(dir, "comparison.svg"), filepath.Join(dir, "distribution.svg")}
	got := sink.Written()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Written = %v, want %v", got, want)
	}
	for _, p := range want {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		assertImage(t, FormatSVG, data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("output dir holds %d entries, want 2 (temp files left?)", len(entries))
	}
}

func TestFileSink_MissingDir(t *testing.T) {
	sink := NewFileSink("", NewRenderer(FormatPNG))
	err := sink.ApplyComparison(report.ComparisonView{NoData: true})
	if !errors.Is(err, report.ErrMissingTarget) {
		t.Errorf("expected ErrMissingTarget, got %v", err)
	}
}

func assertImage(t *testing.T, format Format, data []byte) {
	t.Helper()
	switch format {
	case FormatPNG:
		if !bytes.HasPrefix(data, pngMagic) {
			t.Errorf("output is not a PNG (%d bytes)", len(data))
		}
	case FormatSVG:
		if !strings.Contains(string(data), "<svg") {
			t.Errorf("output is not an SVG (%d bytes)", len(data))
		}
	}
}
