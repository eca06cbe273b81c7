package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

type fakeResolver struct {
	got client.LinkQuery
	err error
}

func (f *fakeResolver) SpecialJQL(_ context.Context, q client.LinkQuery) (*client.Link, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return &client.Link{JQL: "project = " + q.Project, URL: "https://jira.example.com"}, nil
}

func TestQueryService_Link(t *testing.T) {
	tests := []struct {
		name      string
		mode      report.Mode
		chartType string
		wantFrom  string
		ignore    bool
	}{
		{"filtered keeps period", report.ModeFiltered, client.ChartProjectIssues, "2025-01-01", false},
		{"full drops period", report.ModeFull, client.ChartOpenTasks, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{}
			svc := application.NewQueryService(r, filteredPage(t))

			link, err := svc.Link(context.Background(), "ABC", tt.chartType, tt.mode)
			if err != nil {
				t.Fatalf("Link: %v", err)
			}
			if link.JQL != "project = ABC" {
				t.Errorf("JQL = %q", link.JQL)
			}
			q := r.got
			if q.DateFrom != tt.wantFrom || q.IgnorePeriod != tt.ignore {
				t.Errorf("query period = %q ignore=%v", q.DateFrom, q.IgnorePeriod)
			}
			if !q.CLM || q.BaseJQL != "filter=4242" || q.Timestamp != "20250301_120000" || q.ChartType != tt.chartType {
				t.Errorf("query = %+v", q)
			}
		})
	}
}

func TestQueryService_Rejects(t *testing.T) {
	svc := application.NewQueryService(&fakeResolver{}, filteredPage(t))
	ctx := context.Background()

	if _, err := svc.Link(ctx, report.OtherLabel, client.ChartProjectIssues, report.ModeFiltered); !errors.Is(err, application.ErrNoLink) {
		t.Errorf("Other: %v", err)
	}
	if _, err := svc.Link(ctx, "ABC", "burndown", report.ModeFiltered); err == nil {
		t.Error("expected error for unknown chart type")
	}
	if _, err := svc.Link(ctx, "ABC", client.ChartProjectIssues, report.Mode("x")); !errors.Is(err, report.ErrInvalidMode) {
		t.Errorf("mode: %v", err)
	}
	if _, err := application.NewQueryService(nil, nil).Link(ctx, "ABC", client.ChartProjectIssues, report.ModeFull); err == nil {
		t.Error("expected error without resolver")
	}
}

type fakeDashboard struct {
	snap    *dashboard.Snapshot
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeDashboard) Dashboard(ctx context.Context) (*dashboard.Snapshot, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.snap, f.err
}

func testSnapshot() *dashboard.Snapshot {
	return &dashboard.Snapshot{
		TimeSeries: dashboard.TimeSeries{
			Dates:              []string{"2025-07-01", "2025-07-02"},
			ActualTimeSpent:    []float64{100, 110},
			ProjectedTimeSpent: []float64{120, 121},
		},
		Latest:      &dashboard.DailyData{Date: "2025-07-02", TotalTimeSpentHours: 880},
		OpenTasks:   map[string]int{"A": 2, "B": 5},
		ClosedTasks: map[string]int{"C": 1},
	}
}

func TestDashboardService_Refresh(t *testing.T) {
	now := time.Date(2025, time.July, 2, 12, 0, 0, 0, time.UTC)
	svc := application.NewDashboardService(&fakeDashboard{snap: testSnapshot()}, 365, 2025,
		application.WithClock(func() time.Time { return now }))

	state, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if state.Metrics.ActualDays != 110 {
		t.Errorf("actual days = %v, want 110", state.Metrics.ActualDays)
	}
	// 2025-07-02 is day 183 of a 365 day year.
	if state.Metrics.ProjectedDays != 183 {
		t.Errorf("projected days = %v, want 183", state.Metrics.ProjectedDays)
	}
	if len(state.OpenTasks.Categories) != 2 || state.OpenTasks.Categories[0].Project != "B" {
		t.Errorf("open tasks = %+v", state.OpenTasks.Categories)
	}
	if svc.Last() != state {
		t.Error("Last does not return the refreshed state")
	}
}

func TestDashboardService_KeepsLastGood(t *testing.T) {
	f := &fakeDashboard{snap: testSnapshot()}
	svc := application.NewDashboardService(f, 100, 2025)
	good, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	f.snap, f.err = nil, &report.FetchError{Op: "fetch dashboard", Err: errors.New("HTTP 500")}
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, report.ErrFetchFailed) {
		t.Errorf("expected fetch failure, got %v", err)
	}
	if svc.Last() != good {
		t.Error("failed refresh replaced the last good state")
	}
}

func TestDashboardService_RejectsConcurrentRefresh(t *testing.T) {
	f := &fakeDashboard{snap: testSnapshot(), started: make(chan struct{}, 1), release: make(chan struct{})}
	svc := application.NewDashboardService(f, 100, 2025)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()
	<-f.started

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, application.ErrRefreshInFlight) {
		t.Errorf("expected ErrRefreshInFlight, got %v", err)
	}
	close(f.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
