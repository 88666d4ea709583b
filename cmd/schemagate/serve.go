package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/schemagate"
	"github.com/aretw0/schemagate/internal/presentation/tui"
	httpAdapter "github.com/aretw0/schemagate/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation HTTP server",
		Long:  `Serves the validation API over HTTP. The OpenAPI document is available at /openapi.json.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch, _ = cmd.Flags().GetBool("watch")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tui.PrintBanner(cmd.ErrOrStderr(), schemagate.Version)
			if a.cfg.Watch {
				startWatch(ctx, a)
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           buildHandler(a),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
		},
	}
	cmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	cmd.Flags().Bool("watch", false, "Evict cached validators when schema documents change")
	return cmd
}

func buildHandler(a *app) http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(a.logger),
		httpAdapter.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
	}
	if a.promReg != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(
			promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{Registry: a.promReg}),
		))
	}
	return httpAdapter.NewHandler(a.gate, opts...)
}

// startWatch evicts cached validators on source changes until ctx is done.
// Sources without change notifications are logged and otherwise ignored.
func startWatch(ctx context.Context, a *app) {
	err := a.gate.Watch(ctx)
	switch {
	case errors.Is(err, schemagate.ErrWatchUnsupported):
		a.logger.Warn("schema source does not support watching", "source", a.cfg.Source.Kind)
	case err != nil:
		a.logger.Error("schema watch failed", "error", err)
	default:
		a.logger.Info("watching schema source for changes", "source", a.cfg.Source.Kind)
	}
}

// runServer serves until ctx is done, then shuts down within timeout.
func runServer(ctx context.Context, srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if cerr := srv.Close(); cerr != nil {
			logger.Error("failed to close server", "error", cerr)
		}
		return fmt.Errorf("graceful shutdown did not complete in %v: %w", timeout, err)
	}
	logger.Info("server stopped")
	return nil
}
