package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/sse"
	"github.com/felixgeelhaar/timelens/pkg/infrastructure/reportserver"
	"github.com/spf13/cobra"
)

func newServeCmd(global *globalFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report as a web page with the dataset toggle",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			if listen != "" {
				e.cfg.Listen = listen
			}

			sess, err := e.openSession(cmd.Context(), sinks{})
			if err != nil {
				return err
			}
			if err := sess.Controller.Redraw(); err != nil {
				return err
			}
			stream := sse.NewSSEHandler()
			stream.Register(e.dispatcher)
			srv, err := reportserver.NewServer(e.cfg.Listen, sess, e.logger, reportserver.WithEventStream(stream))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report for %s at http://%s (Ctrl+C to stop)\n", sess.Page.Timestamp, e.cfg.Listen)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	return cmd
}
