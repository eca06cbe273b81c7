package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/events"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// ErrRefreshInFlight is returned when a dashboard refresh is already running.
var ErrRefreshInFlight = errors.New("dashboard refresh already in progress")

// DashboardFetcher loads the dashboard data.
type DashboardFetcher interface {
	Dashboard(ctx context.Context) (*dashboard.Snapshot, error)
}

// DashboardState is what the dashboard displays.
type DashboardState struct {
	Snapshot    *dashboard.Snapshot
	Metrics     dashboard.Metrics
	OpenTasks   report.DistributionView
	ClosedTasks report.DistributionView
}

// DashboardService refreshes the budget dashboard. Only one refresh runs at
// a time; a failed refresh keeps the last good state.
type DashboardService struct {
	mu         sync.Mutex
	fetcher    DashboardFetcher
	budget     float64
	year       int
	now        func() time.Time
	refreshing bool
	last       *DashboardState

	logger    *slog.Logger
	publisher events.Publisher
	session   string
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

func WithDashboardLogger(l *slog.Logger) DashboardOption {
	return func(s *DashboardService) { s.logger = l }
}

func WithDashboardPublisher(p events.Publisher, session string) DashboardOption {
	return func(s *DashboardService) {
		s.publisher = p
		s.session = session
	}
}

// WithClock replaces time.Now for the projection.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func NewDashboardService(fetcher DashboardFetcher, budgetDays float64, year int, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		fetcher: fetcher,
		budget:  budgetDays,
		year:    year,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.year == 0 {
		s.year = s.now().Year()
	}
	return s
}

// Refresh loads a new snapshot.
func (s *DashboardService) Refresh(ctx context.Context) (*DashboardState, error) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return nil, ErrRefreshInFlight
	}
	s.refreshing = true
	s.mu.Unlock()

	snap, err := s.fetcher.Dashboard(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = false
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard refresh failed", "error", err)
		_ = s.publisher.Publish(ctx, events.NewFetchFailed(s.session, "dashboard", err))
		return nil, err
	}

	state := &DashboardState{
		Snapshot:    snap,
		Metrics:     dashboard.BuildMetrics(snap, s.budget, s.year, s.now()),
		OpenTasks:   report.BuildDistribution(report.CountsDataset(snap.OpenTasks), report.DistributionTop),
		ClosedTasks: report.BuildDistribution(report.CountsDataset(snap.ClosedTasks), report.DistributionTop),
	}
	s.last = state
	_ = s.publisher.Publish(ctx, events.NewDashboardRefreshed(s.session, state.Metrics.AsOf, snap.TimeSeries.Len()))
	return state, nil
}

// Last returns the last good state, or nil before the first refresh.
func (s *DashboardService) Last() *DashboardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
