package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/focusarea/internal/version"
	"github.com/example/focusarea/internal/wire"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the focus-area HTTP API",
		Long: `Serve the focus-area HTTP API under /api/v1, with /health and
/metrics. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Get()
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = c.Config.HTTPAddr
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      c.Router(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: c.Config.AI.Timeout.Std() + 15*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				c.Logger.Info("server starting",
					zap.String("addr", addr),
					zap.String("version", version.String()),
					zap.String("db", c.Config.DBPath))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				c.Logger.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				c.Logger.Error("server stopped with error", zap.Error(err))
				return err
			}
			c.Logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http_addr)")
	return cmd
}
