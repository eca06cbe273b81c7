package application

import (
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// BoardState is a consistent copy of everything the board displays.
type BoardState struct {
	Comparison   report.ComparisonView
	Distribution report.DistributionView
	Summary      report.SummaryView
	Version      uint64
}

// Board is an in-memory display target for all three views. Surfaces that
// paint on demand (the TUI, the HTML report) read from it.
type Board struct {
	mu      sync.RWMutex
	state   BoardState
	changed chan struct{}
}

func NewBoard() *Board {
	return &Board{changed: make(chan struct{}, 1)}
}

func (b *Board) ApplyComparison(v report.ComparisonView) error {
	b.update(func(s *BoardState) { s.Comparison = v })
	return nil
}

func (b *Board) ApplyDistribution(v report.DistributionView) error {
	b.update(func(s *BoardState) { s.Distribution = v })
	return nil
}

func (b *Board) ApplySummary(v report.SummaryView) error {
	b.update(func(s *BoardState) { s.Summary = v })
	return nil
}

func (b *Board) update(fn func(*BoardState)) {
	b.mu.Lock()
	fn(&b.state)
	b.state.Version++
	b.mu.Unlock()

	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// State returns the current contents.
func (b *Board) State() BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Changed signals after updates. Bursts coalesce into one signal.
func (b *Board) Changed() <-chan struct{} {
	return b.changed
}
