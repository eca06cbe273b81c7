package cli

import (
	"encoding/json"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"github.com/spf13/cobra"
)

type summaryFlags struct {
	mode       string
	json       bool
	comparison bool
	exclude    []string
}

// summaryJSONOutput represents the JSON output format for summary
type summaryJSONOutput struct {
	Analysis string             `json:"analysis"`
	Mode     report.Mode        `json:"mode"`
	DateFrom string             `json:"date_from,omitempty"`
	DateTo   string             `json:"date_to,omitempty"`
	Rows     []summaryJSONRow   `json:"summary"`
	Projects []projectJSONRow   `json:"projects,omitempty"`
	Excluded []report.ProjectID `json:"excluded,omitempty"`
}

type summaryJSONRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type projectJSONRow struct {
	Project   report.ProjectID `json:"project"`
	Estimate  float64          `json:"estimate_hours"`
	TimeSpent float64          `json:"time_spent_hours"`
	Secondary *float64         `json:"clm_estimate_hours,omitempty"`
}

func newSummaryCmd(global *globalFlags) *cobra.Command {
	f := &summaryFlags{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the statistics of an analysis",
		Long: `Print the statistics table of an analysis.

Use flags to shape the output:
  --mode, -m       filtered (default) or full
  --comparison     Also print the per-project estimate vs. time spent table
  --exclude        Leave projects out of the comparison table
  --json           Output in JSON format

Examples:
  timelens summary --data runs/20250301_120000
  timelens summary --mode full --comparison --exclude ABC,DEF
  timelens summary --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			return runSummary(cmd, e, f)
		},
	}
	addModeFlag(cmd, &f.mode)
	cmd.Flags().BoolVar(&f.json, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&f.comparison, "comparison", false, "include the per-project comparison table")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "projects to leave out of the comparison")
	return cmd
}

func runSummary(cmd *cobra.Command, e *env, f *summaryFlags) error {
	mode, err := parseModeFlag(f.mode)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sess, err := e.openSession(ctx, sinks{})
	if err != nil {
		return err
	}
	if err := showMode(ctx, sess, mode); err != nil {
		return err
	}
	for _, id := range f.exclude {
		if err := sess.Comparison.SetExclusion(report.ProjectID(id), true); err != nil {
			return err
		}
	}
	state := sess.Board.State()
	out := cmd.OutOrStdout()

	if f.json {
		output := summaryJSONOutput{
			Analysis: sess.Page.Timestamp,
			Mode:     mode,
			Excluded: sess.Comparison.Excluded(),
		}
		if !mode.IgnoresPeriod() {
			output.DateFrom, output.DateTo = sess.Page.DateFrom, sess.Page.DateTo
		}
		for _, r := range state.Summary.Rows() {
			output.Rows = append(output.Rows, summaryJSONRow{Label: r.Label, Value: r.Value})
		}
		if f.comparison {
			output.Projects = projectRows(state.Comparison)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	printSummary(out, sess.Page, mode, state.Summary)
	if f.comparison {
		printComparison(out, state.Comparison, sess.Comparison.Excluded())
	}
	return nil
}

func projectRows(v report.ComparisonView) []projectJSONRow {
	if v.NoData {
		return nil
	}
	rows := make([]projectJSONRow, len(v.Labels))
	for i, id := range v.Labels {
		rows[i] = projectJSONRow{
			Project:   id,
			Estimate:  v.Estimate.Values[i],
			TimeSpent: v.TimeSpent.Values[i],
		}
		if v.Secondary != nil {
			val := v.Secondary.Values[i]
			rows[i].Secondary = &val
		}
	}
	return rows
}
