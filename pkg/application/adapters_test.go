package application_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

func newBoardController(t *testing.T) (*application.ModeController, *application.Board, *application.ComparisonAdapter, *application.DistributionAdapter) {
	t.Helper()
	board := application.NewBoard()
	cmp := application.NewComparisonAdapter(board)
	dist := application.NewDistributionAdapter(board)
	ctrl, err := application.NewModeController(filteredPage(t), &fakeFetcher{ds: fullDataset(t)},
		application.Views{Comparison: cmp, Summary: application.NewSummaryAdapter(board), Distribution: dist})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Redraw(); err != nil {
		t.Fatal(err)
	}
	return ctrl, board, cmp, dist
}

func TestScenario_FilteredViews(t *testing.T) {
	_, board, _, _ := newBoardController(t)
	s := board.State()

	if !reflect.DeepEqual(s.Comparison.Labels, []report.ProjectID{"B", "A"}) {
		t.Errorf("labels = %v", s.Comparison.Labels)
	}
	if !reflect.DeepEqual(s.Comparison.Estimate.Values, []float64{20, 10}) {
		t.Errorf("estimate = %v", s.Comparison.Estimate.Values)
	}
	if !reflect.DeepEqual(s.Comparison.TimeSpent.Values, []float64{30, 5}) {
		t.Errorf("time spent = %v", s.Comparison.TimeSpent.Values)
	}
	if s.Comparison.Secondary != nil {
		t.Error("secondary series shown without secondary data")
	}

	cats := s.Distribution.Categories
	if len(cats) != 2 || cats[0].Project != "B" || cats[0].Count != 7 || cats[1].Project != "A" || cats[1].Count != 3 {
		t.Errorf("distribution = %+v", cats)
	}

	sum := s.Summary
	if sum.ProjectCount != "2" || sum.TotalEstimate != "30.00" || sum.TotalTimeSpent != "35.00" || sum.Efficiency != "1.17" || sum.TotalIssues != "10" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestComparisonAdapter_ExclusionSurvivesSwitches(t *testing.T) {
	ctrl, board, cmp, _ := newBoardController(t)
	ctx := context.Background()

	// Z is not in either dataset and must stay inert.
	for _, id := range []report.ProjectID{"B", "Z"} {
		if err := cmp.SetExclusion(id, true); err != nil {
			t.Fatalf("SetExclusion(%s): %v", id, err)
		}
	}
	if got := board.State().Comparison.Labels; !reflect.DeepEqual(got, []report.ProjectID{"A"}) {
		t.Errorf("labels with B excluded = %v", got)
	}

	want := []report.ProjectID{"B", "Z"}
	for i := 0; i < 3; i++ {
		if err := ctrl.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		if got := cmp.Excluded(); !reflect.DeepEqual(got, want) {
			t.Fatalf("after toggle %d excluded = %v, want %v", i+1, got, want)
		}
	}
	// Full mode: A, C remain.
	if got := board.State().Comparison.Labels; !reflect.DeepEqual(got, []report.ProjectID{"A", "C"}) {
		t.Errorf("full labels = %v", got)
	}
}

func TestComparisonAdapter_SelectionOps(t *testing.T) {
	_, board, cmp, _ := newBoardController(t)

	if err := cmp.DeselectAll(); err != nil {
		t.Fatal(err)
	}
	if !board.State().Comparison.NoData {
		t.Error("expected placeholder with every project excluded")
	}
	if got := cmp.Excluded(); !reflect.DeepEqual(got, []report.ProjectID{"A", "B"}) {
		t.Errorf("excluded = %v", got)
	}

	if err := cmp.ResetFilter(); err != nil {
		t.Fatal(err)
	}
	if len(cmp.Excluded()) != 0 || len(board.State().Comparison.Labels) != 2 {
		t.Errorf("reset left %v excluded", cmp.Excluded())
	}

	if err := cmp.Toggle("A"); err != nil {
		t.Fatal(err)
	}
	if !cmp.IsExcluded("A") {
		t.Error("Toggle did not exclude A")
	}
	if err := cmp.SelectAll(); err != nil {
		t.Fatal(err)
	}
	if cmp.IsExcluded("A") {
		t.Error("SelectAll left A excluded")
	}
	if got := cmp.Projects(); !reflect.DeepEqual(got, []report.ProjectID{"B", "A"}) {
		t.Errorf("Projects = %v", got)
	}
}

func TestAdapters_MissingTarget(t *testing.T) {
	ds := filteredPage(t).Filtered
	views := []application.View{
		application.NewComparisonAdapter(nil),
		application.NewDistributionAdapter(nil),
		application.NewSummaryAdapter(nil),
	}
	for _, v := range views {
		if err := v.Render(ds); !errors.Is(err, report.ErrMissingTarget) {
			t.Errorf("%s: expected ErrMissingTarget, got %v", v.Name(), err)
		}
	}
}

func TestDistributionAdapter_SelectOther(t *testing.T) {
	counts := make(map[string]int, 45)
	for i := 0; i < 45; i++ {
		counts[fmt.Sprintf("P%02d", i)] = 100 - i
	}
	ds := mustDataset(t, report.Source{ProjectCounts: counts})

	board := application.NewBoard()
	dist := application.NewDistributionAdapter(board)
	if err := dist.Render(ds); err != nil {
		t.Fatal(err)
	}
	view := dist.View()
	if len(view.Categories) != 21 {
		t.Fatalf("categories = %d, want 21", len(view.Categories))
	}
	other := view.Categories[20]
	want := 0
	for i := 20; i < 45; i++ {
		want += 100 - i
	}
	if !other.Other || other.Count != want {
		t.Errorf("Other = %+v, want count %d", other, want)
	}
	if _, ok := dist.Select(20); ok {
		t.Error("Other segment resolved to a project")
	}
	if id, ok := dist.Select(0); !ok || id != "P00" {
		t.Errorf("Select(0) = %q, %v", id, ok)
	}

	// Rendering twice yields the same view.
	if err := dist.Render(ds); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dist.View(), view) {
		t.Error("distribution render is not idempotent")
	}
}

func TestSummaryAdapter_ZeroEstimate(t *testing.T) {
	board := application.NewBoard()
	sum := application.NewSummaryAdapter(board)
	ds := mustDataset(t, report.Source{
		ProjectEstimates: map[string]float64{"A": 0},
		ProjectTimeSpent: map[string]float64{"A": 120},
		ProjectCounts:    map[string]int{"A": 4},
	})
	if err := sum.Render(ds); err != nil {
		t.Fatal(err)
	}
	if got := board.State().Summary.Efficiency; got != "0.00" {
		t.Errorf("efficiency = %q, want 0.00", got)
	}
}

func TestBoard_SignalsChanges(t *testing.T) {
	board := application.NewBoard()
	_ = board.ApplySummary(report.SummaryView{TotalIssues: "1"})
	_ = board.ApplySummary(report.SummaryView{TotalIssues: "2"})

	select {
	case <-board.Changed():
	default:
		t.Fatal("no change signal")
	}
	select {
	case <-board.Changed():
		t.Error("bursts should coalesce")
	default:
	}
	if s := board.State(); s.Version != 2 || s.Summary.TotalIssues != "2" {
		t.Errorf("state = %+v", s)
	}
}
