package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/watch"
	"github.com/felixgeelhaar/timelens/pkg/chart"
	"github.com/felixgeelhaar/timelens/pkg/storage"
	"github.com/spf13/cobra"
)

type renderFlags struct {
	mode      string
	outputDir string
	format    string
	watch     bool
	debounce  time.Duration
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the comparison and distribution charts and print the summary",
		Long: `Write the comparison and distribution charts of an analysis to image files
and print the statistics table.

Examples:
  timelens render --data runs/20250301_120000
  timelens render --mode full --format svg --output-dir out
  timelens render --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			return runRender(cmd, e, f)
		},
	}
	addModeFlag(cmd, &f.mode)
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "chart output directory (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "chart format: png or svg (default from config)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-render whenever the data file changes")
	cmd.Flags().DurationVar(&f.debounce, "debounce", 500*time.Millisecond, "quiet period before re-rendering in watch mode")
	return cmd
}

func runRender(cmd *cobra.Command, e *env, f *renderFlags) error {
	mode, err := parseModeFlag(f.mode)
	if err != nil {
		return err
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
	sink := chart.NewFileSink(e.cfg.OutputDir, chart.NewRenderer(format))
	out := cmd.OutOrStdout()

	render := func(ctx context.Context) error {
		sess, err := e.openSession(ctx, sinks{comparison: sink, distribution: sink})
		if err != nil {
			return err
		}
		before := len(sink.Written())
		if err := showMode(ctx, sess, mode); err != nil {
			return err
		}
		printSummary(out, sess.Page, mode, sess.Board.State().Summary)
		for _, p := range sink.Written()[before:] {
			_, _ = fmt.Fprintf(out, "wrote %s\n", p)
		}
		return nil
	}

	if err := render(cmd.Context()); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}
	return watchAndRender(cmd.Context(), e, out, f.debounce, render)
}

// watchAndRender re-runs render on every change of the data file until
// interrupted. Render failures are reported and watching continues.
func watchAndRender(parent context.Context, e *env, out io.Writer, debounce time.Duration, render func(context.Context) error) error {
	path, err := storage.ResolvePath(e.dataPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.NewFSWatcher(debounce, func(ev watch.ChangeEvent) {
		if ev.ChangeType == "remove" {
			return
		}
		e.logger.Info("data file changed", "path", ev.Path, "change", ev.ChangeType)
		if err := render(ctx); err != nil {
			PrintError(out, err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.WatchFile(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", path)

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
