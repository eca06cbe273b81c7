package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// ErrNoLink is returned for chart segments that have no Jira issues behind
// them, such as the aggregated Other slice.
var ErrNoLink = errors.New("segment has no deep link")

// LinkResolver builds Jira deep links.
type LinkResolver interface {
	SpecialJQL(ctx context.Context, q client.LinkQuery) (*client.Link, error)
}

// QueryService turns a clicked chart segment into a Jira deep link using the
// period and source of the current analysis.
type QueryService struct {
	resolver LinkResolver
	page     *report.PageData
}

func NewQueryService(resolver LinkResolver, page *report.PageData) *QueryService {
	return &QueryService{resolver: resolver, page: page}
}

// Link resolves the issues of project for chartType. In full mode the
// analysis period is dropped from the query.
func (s *QueryService) Link(ctx context.Context, project report.ProjectID, chartType string, mode report.Mode) (*client.Link, error) {
	if project == "" || project == report.OtherLabel {
		return nil, fmt.Errorf("%w: %q", ErrNoLink, project)
	}
	switch chartType {
	case client.ChartProjectIssues, client.ChartOpenTasks, client.ChartClosedTasks:
	default:
		return nil, fmt.Errorf("unknown chart type %q", chartType)
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", report.ErrInvalidMode, mode)
	}
	if s.resolver == nil {
		return nil, errors.New("no server configured")
	}

	return s.resolver.SpecialJQL(ctx, s.query(project, chartType, mode))
}

func (s *QueryService) query(project report.ProjectID, chartType string, mode report.Mode) client.LinkQuery {
	q := client.LinkQuery{
		Project:      string(project),
		ChartType:    chartType,
		IgnorePeriod: mode.IgnoresPeriod(),
	}
	if s.page != nil {
		q.CLM = s.page.IsCLM()
		q.BaseJQL = s.page.BaseJQL
		q.Timestamp = s.page.Timestamp
		if !q.IgnorePeriod {
			q.DateFrom = s.page.DateFrom
			q.DateTo = s.page.DateTo
		}
	}
	return q
}
