package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/chart"
	"github.com/spf13/cobra"
)

type dashboardFlags struct {
	budget    float64
	year      int
	outputDir string
	format    string
	interval  time.Duration
	tasks     bool
}

func newDashboardCmd(global *globalFlags) *cobra.Command {
	f := &dashboardFlags{}
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show budget tracking from the collected daily data",
		Long: `Fetch the daily time tracking data from the analysis server, compare the
effort spent with the linear budget projection for the year and write the
time series chart.

Examples:
  timelens dashboard
  timelens dashboard --budget 20000 --year 2025 --tasks
  timelens dashboard --interval 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			return runDashboard(cmd, e, f)
		},
	}
	cmd.Flags().Float64Var(&f.budget, "budget", 0, "budget in person-days (default from config)")
	cmd.Flags().IntVar(&f.year, "year", 0, "budget year (default from config, else the current year)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "chart output directory (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "chart format: png or svg (default from config)")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "refresh periodically until interrupted")
	cmd.Flags().BoolVar(&f.tasks, "tasks", false, "also print open and closed tasks per project")
	return cmd
}

func runDashboard(cmd *cobra.Command, e *env, f *dashboardFlags) error {
	if f.budget > 0 {
		e.cfg.Dashboard.BudgetDays = f.budget
	}
	if f.year > 0 {
		e.cfg.Dashboard.Year = f.year
	}
	if f.outputDir != "" {
		e.cfg.OutputDir = f.outputDir
	}
	if f.format != "" {
		e.cfg.ChartFormat = f.format
	}
	format, err := chart.ParseFormat(e.cfg.ChartFormat)
	if err != nil {
		return err
	}
	renderer := chart.NewRenderer(format)
	sink := chart.NewFileSink(e.cfg.OutputDir, renderer)

	svc := application.NewDashboardService(e.client, e.cfg.Dashboard.BudgetDays, e.cfg.Dashboard.Year,
		application.WithDashboardLogger(e.logger),
		application.WithDashboardPublisher(e.dispatcher, e.session),
	)
	out := cmd.OutOrStdout()

	refresh := func(ctx context.Context) error {
		state, err := svc.Refresh(ctx)
		if err != nil {
			return err
		}
		return showDashboard(out, state, renderer, sink, f.tasks)
	}

	if err := refresh(cmd.Context()); err != nil {
		return err
	}
	if f.interval <= 0 {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(ctx); err != nil {
				// The last good numbers stay on screen.
				PrintError(out, err)
			}
		}
	}
}

func showDashboard(out io.Writer, state *application.DashboardState, renderer *chart.Renderer, sink *chart.FileSink, tasks bool) error {
	printMetrics(out, state.Metrics)
	if tasks {
		printDistribution(out, "Open tasks", state.OpenTasks)
		printDistribution(out, "Closed tasks", state.ClosedTasks)
	}

	var buf bytes.Buffer
	if err := renderer.Dashboard(&buf, state.Snapshot.TimeSeries); err != nil {
		return fmt.Errorf("render dashboard chart: %w", err)
	}
	if err := sink.WriteFile(chart.DashboardFile, buf.Bytes()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", sink.Path(chart.DashboardFile))
	return nil
}
