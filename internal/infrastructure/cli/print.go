package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"github.com/gosuri/uitable"
)

func printHeading(w io.Writer, title string) {
	_, _ = color.New(color.Bold, color.Underline).Fprintln(w, title)
}

func printSummary(w io.Writer, page *report.PageData, mode report.Mode, v report.SummaryView) {
	caption := mode.Label()
	if !mode.IgnoresPeriod() && page.DateFrom != "" {
		caption = fmt.Sprintf("%s (%s .. %s)", caption, page.DateFrom, page.DateTo)
	}
	printHeading(w, fmt.Sprintf("Analysis %s: %s", page.Timestamp, caption))

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, r := range v.Rows() {
		tbl.AddRow(r.Label, r.Value)
	}
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(w, tbl)
}

func printComparison(w io.Writer, v report.ComparisonView, excluded []report.ProjectID) {
	printHeading(w, "Estimate vs. time spent")
	if v.NoData {
		_, _ = fmt.Fprintln(w, "No projects to show")
		return
	}
	series := v.AllSeries()
	tbl := uitable.New()
	tbl.Separator = "  "
	header := []interface{}{"Project"}
	for _, s := range series {
		header = append(header, s.Name)
	}
	tbl.AddRow(header...)
	for i, id := range v.Labels {
		row := []interface{}{string(id)}
		for _, s := range series {
			row = append(row, report.FormatHours(s.Values[i]))
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(w, tbl)
	if len(excluded) > 0 {
		_, _ = color.New(color.Faint).Fprintf(w, "Excluded: %v\n", excluded)
	}
}

func printDistribution(w io.Writer, title string, v report.DistributionView) {
	printHeading(w, title)
	if v.NoData {
		_, _ = fmt.Fprintln(w, "No issues")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Project", "Issues", "Share")
	for i, c := range v.Categories {
		tbl.AddRow(c.Label, c.Count, fmt.Sprintf("%d%%", v.Share(i)))
	}
	tbl.RightAlign(1)
	tbl.RightAlign(2)
	_, _ = fmt.Fprintln(w, tbl)
}

func printMetrics(w io.Writer, m dashboard.Metrics) {
	printHeading(w, fmt.Sprintf("Budget tracking as of %s", m.AsOf))
	status := color.New(color.FgGreen).Sprint("on track")
	if !m.OnTrack() {
		status = color.New(color.FgRed).Sprint("over projection")
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Actual (person-days)", report.FormatHours(m.ActualDays))
	tbl.AddRow("Projected (person-days)", report.FormatHours(m.ProjectedDays))
	tbl.AddRow("Difference", report.FormatHours(m.Difference))
	tbl.AddRow("Budget", report.FormatHours(m.Budget))
	tbl.AddRow("Progress", fmt.Sprintf("%.1f%%", m.Progress))
	tbl.AddRow("Status", status)
	_, _ = fmt.Fprintln(w, tbl)
}
