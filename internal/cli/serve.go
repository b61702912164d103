package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpdelivery "github.com/egannguyen/printshop-backend/internal/delivery/http"
	"github.com/egannguyen/printshop-backend/internal/telemetry"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	cfg := opts.cfg

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: httpdelivery.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
	}, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("Failed to flush traces", "err", err)
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Database.Seed {
		if err := a.catalog.Seed(ctx); err != nil {
			return err
		}
	}

	handler := httpdelivery.NewHandler(a.catalog, a.orders, a.reports)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpdelivery.NewRouter(handler),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
