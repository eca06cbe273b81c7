package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/config"
	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/events"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"github.com/felixgeelhaar/timelens/pkg/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	dataPath   string
	server     string
	logLevel   string
}

// env is the per-invocation runtime built from flags and config.
type env struct {
	cfg        *config.Config
	logger     *slog.Logger
	session    string
	dispatcher *events.EventDispatcher
	client     *client.Client
	pages      *storage.PageStore
	dataPath   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:     "timelens",
		Version: Version,
		Short:   "Time tracking reports for Jira and CLM analyses",
		Long: `timelens reads the data of a time tracking analysis run and shows it as
charts and tables. For CLM analyses it can switch between the period-filtered
data and the full CLM dataset fetched from the analysis server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ~/.timelens.yaml)")
	pf.StringVarP(&flags.dataPath, "data", "d", ".", "analysis data file or directory containing "+storage.DefaultPageFile)
	pf.StringVar(&flags.server, "server", "", "analysis server base URL (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRenderCmd(flags),
		newSummaryCmd(flags),
		newJQLCmd(flags),
		newDashboardCmd(flags),
		newServeCmd(flags),
		newViewCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// Execute runs the CLI and prints mapped errors with their hints.
// This is called by main.main().
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return 0
	}
	return PrintError(root.ErrOrStderr(), err)
}

// loadEnv resolves config, logging and the server client.
func loadEnv(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	path, err := config.ResolvePath(flags.configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.server != "" {
		cfg.Server = flags.server
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	logger := newLogger(cmd.ErrOrStderr(), level).With("session", sessionID)

	dispatcher := events.NewEventDispatcher()
	events.NewLogHandler(logger).Register(dispatcher)

	c, err := client.New(cfg.Server,
		client.WithTimeout(cfg.Timeout),
		client.WithRetry(cfg.MaxAttempts, cfg.RetryDelay),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:        cfg,
		logger:     logger,
		session:    sessionID,
		dispatcher: dispatcher,
		client:     c,
		pages:      storage.NewPageStore(),
		dataPath:   flags.dataPath,
	}, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// sinks overrides where the session draws; nil fields use the board.
type sinks struct {
	comparison   application.ComparisonSink
	distribution application.DistributionSink
}

// openSession loads the page data and wires a session against the server.
func (e *env) openSession(ctx context.Context, s sinks) (*application.Session, error) {
	page, err := e.pages.Load(ctx, e.dataPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("page data loaded", "analysis", page.Timestamp, "source", page.DataSource,
		"projects", len(page.Filtered.Order))

	return application.NewSession(application.SessionConfig{
		Page:             page,
		Fetcher:          e.client,
		Resolver:         e.client,
		ComparisonSink:   s.comparison,
		DistributionSink: s.distribution,
		Options: []application.ControllerOption{
			application.WithLogger(e.logger),
			application.WithPublisher(e.dispatcher),
			application.WithSessionID(e.session),
			application.WithDistributionDelay(e.cfg.DistributionDelay),
		},
	})
}

// showMode draws the session in the requested mode.
func showMode(ctx context.Context, sess *application.Session, mode report.Mode) error {
	if mode == report.ModeFiltered {
		return sess.Controller.Redraw()
	}
	if !sess.CanToggle() {
		return errNoFullDataset
	}
	return sess.Controller.Switch(ctx, mode)
}

func parseModeFlag(raw string) (report.Mode, error) {
	if raw == "" {
		return report.ModeFiltered, nil
	}
	return report.ParseMode(raw)
}

func addModeFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "mode", "m", string(report.ModeFiltered),
		fmt.Sprintf("dataset to show: %s or %s", report.ModeFiltered, report.ModeFull))
}
