package application

import (
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// SessionConfig wires one reporting session. Nil sinks default to the
// session board.
type SessionConfig struct {
	Page             *report.PageData
	Fetcher          FullDatasetFetcher
	Resolver         LinkResolver
	ComparisonSink   ComparisonSink
	DistributionSink DistributionSink
	SummarySink      SummarySink
	Options          []ControllerOption
}

// Session bundles the controller with its adapters for one analysis page.
type Session struct {
	Page         *report.PageData
	Board        *Board
	Controller   *ModeController
	Comparison   *ComparisonAdapter
	Distribution *DistributionAdapter
	Summary      *SummaryAdapter
	Queries      *QueryService
}

// NewSession builds the adapters and the controller. Nothing is rendered
// until the first Redraw.
func NewSession(cfg SessionConfig) (*Session, error) {
	board := NewBoard()
	s := &Session{Page: cfg.Page, Board: board}

	var cmpSink ComparisonSink = board
	if cfg.ComparisonSink != nil {
		cmpSink = cfg.ComparisonSink
	}
	var distSink DistributionSink = board
	if cfg.DistributionSink != nil {
		distSink = cfg.DistributionSink
	}
	var sumSink SummarySink = board
	if cfg.SummarySink != nil {
		sumSink = cfg.SummarySink
	}

	s.Comparison = NewComparisonAdapter(cmpSink)
	s.Distribution = NewDistributionAdapter(distSink)
	s.Summary = NewSummaryAdapter(sumSink)

	ctrl, err := NewModeController(cfg.Page, cfg.Fetcher, Views{
		Comparison:   s.Comparison,
		Summary:      s.Summary,
		Distribution: s.Distribution,
	}, cfg.Options...)
	if err != nil {
		return nil, err
	}
	s.Controller = ctrl
	s.Queries = NewQueryService(cfg.Resolver, cfg.Page)
	return s, nil
}

// CanToggle reports whether the analysis offers the full CLM dataset.
func (s *Session) CanToggle() bool {
	return s.Page != nil && s.Page.IsCLM()
}
