package application

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// DistributionSink displays a distribution view.
type DistributionSink interface {
	ApplyDistribution(v report.DistributionView) error
}

// DistributionAdapter renders the per-project issue distribution. Every
// render rebuilds the view from scratch.
type DistributionAdapter struct {
	mu   sync.Mutex
	sink DistributionSink
	top  int
	view report.DistributionView
}

func NewDistributionAdapter(sink DistributionSink) *DistributionAdapter {
	return &DistributionAdapter{sink: sink, top: report.DistributionTop}
}

func (a *DistributionAdapter) Name() string { return "distribution" }

func (a *DistributionAdapter) Render(ds *report.Dataset) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sink == nil {
		return fmt.Errorf("distribution: %w", report.ErrMissingTarget)
	}
	a.view = report.BuildDistribution(ds, a.top)
	return a.sink.ApplyDistribution(a.view)
}

// Select resolves a clicked segment. The aggregated Other segment has no
// project behind it.
func (a *DistributionAdapter) Select(index int) (report.ProjectID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view.Select(index)
}

// View returns the last built view.
func (a *DistributionAdapter) View() report.DistributionView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}
