package application

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// ComparisonSink displays a comparison view.
type ComparisonSink interface {
	ApplyComparison(v report.ComparisonView) error
}

// ComparisonAdapter renders the estimate vs time spent chart and owns the
// project exclusion set. The exclusion set is independent of the dataset
// mode and survives switches; entries for projects absent from the current
// dataset are kept but have no effect.
type ComparisonAdapter struct {
	mu       sync.Mutex
	sink     ComparisonSink
	limit    int
	excluded report.ExclusionSet
	current  *report.Dataset
	view     report.ComparisonView
}

// NewComparisonAdapter creates an adapter showing at most
// report.ComparisonLimit projects.
func NewComparisonAdapter(sink ComparisonSink) *ComparisonAdapter {
	return &ComparisonAdapter{
		sink:     sink,
		limit:    report.ComparisonLimit,
		excluded: report.NewExclusionSet(),
	}
}

func (a *ComparisonAdapter) Name() string { return "comparison" }

// Render rebuilds the chart from ds with the current exclusion set.
func (a *ComparisonAdapter) Render(ds *report.Dataset) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = ds
	return a.drawLocked()
}

// Redraw rebuilds the chart from the last rendered dataset.
func (a *ComparisonAdapter) Redraw() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drawLocked()
}

func (a *ComparisonAdapter) drawLocked() error {
	if a.sink == nil {
		return fmt.Errorf("comparison: %w", report.ErrMissingTarget)
	}
	if a.current == nil {
		return nil
	}
	a.view = report.BuildComparison(a.current, a.excluded, a.limit)
	return a.sink.ApplyComparison(a.view)
}

// SetExclusion hides or shows one project and redraws.
func (a *ComparisonAdapter) SetExclusion(id report.ProjectID, excluded bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if excluded {
		a.excluded[id] = struct{}{}
	} else {
		delete(a.excluded, id)
	}
	return a.drawLocked()
}

// Toggle flips the exclusion of one project.
func (a *ComparisonAdapter) Toggle(id report.ProjectID) error {
	a.mu.Lock()
	excluded := a.excluded.Has(id)
	a.mu.Unlock()
	return a.SetExclusion(id, !excluded)
}

// SelectAll clears the exclusion set.
func (a *ComparisonAdapter) SelectAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.excluded = report.NewExclusionSet()
	return a.drawLocked()
}

// DeselectAll excludes every project of the current dataset.
func (a *ComparisonAdapter) DeselectAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		for _, id := range a.current.Order {
			a.excluded[id] = struct{}{}
		}
	}
	return a.drawLocked()
}

// ResetFilter restores the default selection, which shows every project.
func (a *ComparisonAdapter) ResetFilter() error {
	return a.SelectAll()
}

// Excluded returns the excluded projects in sorted order.
func (a *ComparisonAdapter) Excluded() []report.ProjectID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.excluded.Sorted()
}

// IsExcluded reports whether id is hidden.
func (a *ComparisonAdapter) IsExcluded(id report.ProjectID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.excluded.Has(id)
}

// View returns the last built view.
func (a *ComparisonAdapter) View() report.ComparisonView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Projects returns the full order of the last rendered dataset, excluded
// projects included, for filter checklists.
func (a *ComparisonAdapter) Projects() []report.ProjectID {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	return append([]report.ProjectID(nil), a.current.Order...)
}
