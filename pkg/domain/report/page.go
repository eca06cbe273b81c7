package report

import "fmt"

// DataSourceCLM marks an analysis built from CLM tickets.
const DataSourceCLM = "clm"

// PageSource is the wire form of the data embedded in an analysis page.
type PageSource struct {
	Source
	Timestamp  string `json:"timestamp"`
	DataSource string `json:"data_source,omitempty"`
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	BaseJQL    string `json:"base_jql,omitempty"`
}

// PageData is the per-session context: which analysis run is shown, the
// period it covers and its period-filtered dataset.
type PageData struct {
	Timestamp  string
	DataSource string
	DateFrom   string
	DateTo     string
	BaseJQL    string
	Filtered   *Dataset
}

// NewPageData builds the session context from its wire form.
func NewPageData(src PageSource) (*PageData, error) {
	ds, err := NewDataset(src.Source)
	if err != nil {
		return nil, fmt.Errorf("page data: %w", err)
	}
	dataSource := src.DataSource
	if dataSource == "" {
		dataSource = "jira"
	}
	return &PageData{
		Timestamp:  src.Timestamp,
		DataSource: dataSource,
		DateFrom:   src.DateFrom,
		DateTo:     src.DateTo,
		BaseJQL:    src.BaseJQL,
		Filtered:   ds,
	}, nil
}

// IsCLM reports whether the analysis supports the full CLM mode.
func (p *PageData) IsCLM() bool {
	return p.DataSource == DataSourceCLM
}
