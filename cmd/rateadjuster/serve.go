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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rateAdjuster/internal/api"
	"rateAdjuster/internal/metrics"
	"rateAdjuster/internal/storage"
	"rateAdjuster/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rates, limits and configuration over HTTP",
		RunE:  runServe,
	}
	addEngineFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("events-out", "", "optional JSONL journal of configuration changes")
	serveCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the configuration change journal")
	serveCmd.Flags().Duration("request-timeout", 10*time.Second, "per request deadline for collaborator reads")
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if a.cfg.Authority == "" {
		return fmt.Errorf("authority is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifiers storage.MultiNotifier
	var changes api.ChangeLister
	if a.cfg.EventsOut != "" {
		journal := storage.NewJsonlStorage(a.cfg.EventsOut)
		notifiers = append(notifiers, storage.NewJournalNotifier(journal, logger))
		changes = journal
	}
	if a.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		notifiers = append(notifiers, storage.NewJournalNotifier(store, logger))
		// Postgres history wins over the file journal when both are set.
		changes = store
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewEngineMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if err := a.buildEngine(ctx, notifiers, recorder); err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("request-timeout")
	srv, err := api.New(api.Config{
		Engine:  a.engine,
		Changes: changes,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("rateadjuster serve start",
		zap.String("rpc", a.cfg.RPCURL),
		zap.String("listen", a.cfg.Listen),
		zap.String("authority", a.engine.Authority().Hex()),
		zap.Int("oracles", len(a.engine.Oracles())),
		zap.String("events_out", a.cfg.EventsOut),
		zap.Bool("postgres", a.cfg.PGDSN != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("rateadjuster serve shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
