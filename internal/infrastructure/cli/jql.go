package cli

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"github.com/spf13/cobra"
)

func newJQLCmd(global *globalFlags) *cobra.Command {
	var (
		mode      string
		chartType string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "jql <project>",
		Short: "Resolve the Jira search behind a project of the report",
		Long: `Resolve the Jira query and search URL for the issues of one project,
scoped the same way the report is.

Chart types:
  project_issues   issues counted in the comparison (default)
  open_tasks       open tasks of the project
  closed_tasks     closed tasks of the project

Examples:
  timelens jql ABC
  timelens jql ABC --mode full --chart-type open_tasks`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseModeFlag(mode)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := e.openSession(ctx, sinks{})
			if err != nil {
				return err
			}
			if m == report.ModeFull && !sess.CanToggle() {
				return errNoFullDataset
			}
			link, err := sess.Queries.Link(ctx, report.ProjectID(args[0]), chartType, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(link)
			}
			_, _ = fmt.Fprintf(out, "JQL: %s\nURL: %s\n", link.JQL, link.URL)
			return nil
		},
	}
	addModeFlag(cmd, &mode)
	cmd.Flags().StringVarP(&chartType, "chart-type", "t", client.ChartProjectIssues, "project_issues, open_tasks or closed_tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}
