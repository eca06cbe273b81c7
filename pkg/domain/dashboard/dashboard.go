// Package dashboard provides the budget tracking model behind the daily
// time-spent dashboard.
package dashboard

import (
	"math"
	"time"
)

// HoursPerDay converts logged hours into person-days.
const HoursPerDay = 8

// TimeSeries is the day-by-day history of actual and projected effort, in
// person-days.
type TimeSeries struct {
	Dates              []string  `json:"dates"`
	ActualTimeSpent    []float64 `json:"actual_time_spent"`
	ProjectedTimeSpent []float64 `json:"projected_time_spent"`
}

// Len returns the number of aligned points. Ragged input is cut to the
// shortest column.
func (ts TimeSeries) Len() int {
	n := len(ts.Dates)
	if len(ts.ActualTimeSpent) < n {
		n = len(ts.ActualTimeSpent)
	}
	if len(ts.ProjectedTimeSpent) < n {
		n = len(ts.ProjectedTimeSpent)
	}
	return n
}

// DailyData is the latest collected day.
type DailyData struct {
	Date                   string         `json:"date"`
	TotalTimeSpentHours    float64        `json:"total_time_spent_hours"`
	TotalTimeSpentDays     float64        `json:"total_time_spent_days"`
	ProjectedTimeSpentDays float64        `json:"projected_time_spent_days"`
	DaysPassed             int            `json:"days_passed"`
	TotalWorkingDays       int            `json:"total_working_days"`
	OpenTasks              map[string]int `json:"open_tasks_data,omitempty"`
	CLMIssuesCount         int            `json:"clm_issues_count"`
	ESTIssuesCount         int            `json:"est_issues_count"`
	ImprovementIssuesCount int            `json:"improvement_issues_count"`
	ImplementationCount    int            `json:"implementation_issues_count"`
}

// Snapshot is one answer of the dashboard endpoint.
type Snapshot struct {
	TimeSeries      TimeSeries     `json:"time_series"`
	Latest          *DailyData     `json:"latest_data"`
	OpenTasks       map[string]int `json:"open_tasks_data"`
	ClosedTasks     map[string]int `json:"closed_tasks_data"`
	LatestTimestamp string         `json:"latest_timestamp"`
}

// Metrics are the headline numbers of the dashboard, in person-days.
type Metrics struct {
	ActualDays    float64
	ProjectedDays float64
	Difference    float64
	Budget        float64
	Progress      float64 // percent of budget consumed, capped at 100
	AsOf          string
}

// OnTrack reports whether actual effort is at or below the projection.
func (m Metrics) OnTrack() bool {
	return m.Difference >= 0
}

// BuildMetrics derives the headline numbers from the latest data. The
// projection is linear over the calendar year: budget / days in year * days
// elapsed, clamped to the year bounds.
func BuildMetrics(s *Snapshot, budget float64, year int, now time.Time) Metrics {
	m := Metrics{Budget: budget}
	if s != nil && s.Latest != nil {
		m.ActualDays = s.Latest.TotalTimeSpentHours / HoursPerDay
		m.AsOf = s.Latest.Date
	}
	m.ProjectedDays = ProjectedDays(budget, year, now)
	m.Difference = m.ProjectedDays - m.ActualDays
	if budget > 0 {
		m.Progress = math.Min(m.ActualDays/budget*100, 100)
	}
	return m
}

// ProjectedDays is the share of budget that should be used by now.
func ProjectedDays(budget float64, year int, now time.Time) float64 {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	totalDays := int(end.Sub(start).Hours()/24) + 1

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var elapsed int
	switch {
	case today.Before(start):
		elapsed = 0
	case today.After(end):
		elapsed = totalDays
	default:
		elapsed = int(today.Sub(start).Hours()/24) + 1
	}
	return budget / float64(totalDays) * float64(elapsed)
}
