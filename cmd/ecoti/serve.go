package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/dashboard"
	"github.com/leonardobora/eco-dashboard-renault/pkg/livestate"
	"github.com/leonardobora/eco-dashboard-renault/pkg/recommender"
	"github.com/leonardobora/eco-dashboard-renault/pkg/server"
	"github.com/leonardobora/eco-dashboard-renault/pkg/storage"
	"github.com/leonardobora/eco-dashboard-renault/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API with periodic refresh",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	src, err := newSource(eng)
	if err != nil {
		return err
	}
	if !src.IsAvailable(ctx) {
		klog.InfoS("Metrics source not reachable yet, serving last known values until it is", "source", src.Name())
	}

	feeder, err := livestate.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create state feeder: %w", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	metrics := telemetry.New()
	opts := []dashboard.Option{dashboard.WithStore(store), dashboard.WithTelemetry(metrics)}
	if feeder != nil {
		opts = append(opts, dashboard.WithFeeder(feeder))
	}
	app := dashboard.NewApp(eng, src, opts...)

	advisor, err := recommender.New(eng, cfg.Datacenter)
	if err != nil {
		return fmt.Errorf("failed to create recommender: %w", err)
	}

	srv := server.New(app, cfg.Sectors, advisor, metrics)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	klog.InfoS("Serving dashboard", "environment", cfg.Environment, "refresh", cfg.RefreshInterval)
	return serveUntilDone(ctx, httpServer, func(ctx context.Context) error {
		return app.Run(ctx, cfg.RefreshInterval)
	})
}

// serveUntilDone runs the HTTP server and the refresh loop until ctx is
// cancelled or the server fails. It returns only after the loop has stopped,
// so deferred store and server closes never race a final refresh.
func serveUntilDone(ctx context.Context, httpServer *http.Server, run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			klog.ErrorS(err, "Refresh loop stopped")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		klog.InfoS("Shutting down")
	case err := <-errCh:
		serveErr = fmt.Errorf("http server failed: %w", err)
	}

	cancel()
	<-runDone

	if serveErr != nil {
		return serveErr
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
