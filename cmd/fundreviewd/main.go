// Command fundreviewd serves the fund review pipeline API.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jpong0810/fund-review-tracker/internal/adapters/reports"
	"github.com/jpong0810/fund-review-tracker/internal/blob"
	"github.com/jpong0810/fund-review-tracker/internal/core"
)

func main() {
	defaultAddr := os.Getenv("FUNDREVIEW_HTTP_ADDR")
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(*addr, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(addr string, logger *zap.Logger) error {
	cfg, err := core.PipelineConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine(cfg))
	if err != nil {
		return err
	}

	metrics, err := core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	svc := core.NewService(store, cfg,
		core.WithLogger(logger.Named("service")),
		core.WithMetrics(metrics),
	)

	ctx := context.Background()
	objects, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	worker := reports.NewWorker(svc, objects, auditLogger{logger.Named("audit")}, logger.Named("exports"))
	worker.Start()

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", &reports.Handler{Service: svc, Exports: worker})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", addr),
			zap.String("policy", string(cfg.Policy)))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return worker.Stop(shutdownCtx)
}

// auditLogger emits export audit entries through the structured logger.
type auditLogger struct {
	logger *zap.Logger
}

func (a auditLogger) Record(_ context.Context, entry reports.AuditEntry) {
	a.logger.Info("export audit",
		zap.String("export_id", entry.ExportID),
		zap.String("action", entry.Action),
		zap.String("actor", entry.Actor),
		zap.String("status", string(entry.Status)),
		zap.String("reason", entry.Reason),
		zap.String("note", entry.Note),
		zap.Time("occurred_at", entry.OccurredAt))
}
