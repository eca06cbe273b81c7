package application

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// SummarySink displays the statistics table.
type SummarySink interface {
	ApplySummary(v report.SummaryView) error
}

// SummaryAdapter renders the summary statistics.
type SummaryAdapter struct {
	mu   sync.Mutex
	sink SummarySink
	view report.SummaryView
}

func NewSummaryAdapter(sink SummarySink) *SummaryAdapter {
	return &SummaryAdapter{sink: sink}
}

func (a *SummaryAdapter) Name() string { return "summary" }

func (a *SummaryAdapter) Render(ds *report.Dataset) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sink == nil {
		return fmt.Errorf("summary: %w", report.ErrMissingTarget)
	}
	a.view = report.BuildSummary(ds)
	return a.sink.ApplySummary(a.view)
}

func (a *SummaryAdapter) View() report.SummaryView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}
