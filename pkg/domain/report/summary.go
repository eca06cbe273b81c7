package report

import "strconv"

// SummaryView holds the statistics table, already formatted. Hours and
// ratios carry two decimals so a round trip through another mode reproduces
// the same digits.
type SummaryView struct {
	TotalIssues       string
	ProjectCount      string
	TotalEstimate     string
	TotalTimeSpent    string
	AvgEstimate       string
	AvgTimeSpent      string
	Efficiency        string
	TotalSecondary    string // empty when the dataset has no secondary estimates
	CLMIssues         string // category counts are empty when not reported
	ESTIssues         string
	ImprovementIssues string
	LinkedIssues      string
}

// SummaryRow is one label/value line of the statistics table.
type SummaryRow struct {
	Label string
	Value string
}

// BuildSummary computes the statistics for ds. Division by zero yields 0.
func BuildSummary(ds *Dataset) SummaryView {
	if ds == nil {
		ds = &Dataset{}
	}
	estimate := ds.TotalEstimate()
	spent := ds.TotalTimeSpent()

	view := SummaryView{
		TotalIssues:    strconv.Itoa(ds.TotalIssues),
		ProjectCount:   strconv.Itoa(len(ds.Order)),
		TotalEstimate:  FormatHours(estimate),
		TotalTimeSpent: FormatHours(spent),
		AvgEstimate:    FormatHours(safeDiv(estimate, float64(ds.TotalIssues))),
		AvgTimeSpent:   FormatHours(safeDiv(spent, float64(ds.TotalIssues))),
		Efficiency:     FormatHours(safeDiv(spent, estimate)),
	}
	if len(ds.SecondaryEstimates) > 0 {
		view.TotalSecondary = FormatHours(ds.TotalSecondaryEstimate())
	}

	c := ds.Categories
	if !c.IsZero() {
		view.CLMIssues = formatCount(c.CLMIssues)
		view.ESTIssues = formatCount(c.ESTIssues)
		view.ImprovementIssues = formatCount(c.ImprovementIssues)
		if c.LinkedIssues != nil {
			view.LinkedIssues = formatCount(c.LinkedIssues)
		} else {
			view.LinkedIssues = strconv.Itoa(ds.TotalIssues)
		}
	}
	return view
}

// Rows returns the non-empty lines in display order.
func (v SummaryView) Rows() []SummaryRow {
	all := []SummaryRow{
		{"Total issues", v.TotalIssues},
		{"Projects", v.ProjectCount},
		{"Total original estimate (h)", v.TotalEstimate},
		{"Total time spent (h)", v.TotalTimeSpent},
		{"Average estimate per issue (h)", v.AvgEstimate},
		{"Average time spent per issue (h)", v.AvgTimeSpent},
		{"Efficiency ratio", v.Efficiency},
		{"Total CLM estimate (h)", v.TotalSecondary},
		{"CLM issues", v.CLMIssues},
		{"EST issues", v.ESTIssues},
		{"Improvement issues", v.ImprovementIssues},
		{"Linked issues", v.LinkedIssues},
	}
	rows := make([]SummaryRow, 0, len(all))
	for _, r := range all {
		if r.Value != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

// FormatHours renders hours and ratios with two decimals.
func FormatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
