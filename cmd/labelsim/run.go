package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/label"
	audithook "github.com/xraph/label/audit_hook"
	"github.com/xraph/label/observability"
	"github.com/xraph/label/store"
	"github.com/xraph/label/store/bolt"
	"github.com/xraph/label/store/memory"
	"github.com/xraph/label/store/sqlite"
)

func run(ctx context.Context, cfg config, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	lvl, err := cfg.level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: lvl}))

	sc, err := loadScenario(cfg.Scenario)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	l := label.New(s,
		label.WithLogger(logger),
		label.WithJournalConfig(100, cfg.FlushEvery),
		label.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))),
		label.WithPlugin(audithook.New(auditLog(logger), audithook.WithLogger(logger))),
	)
	if err := l.Start(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("start label: %w", err)
	}
	defer func() {
		if err := l.Stop(); err != nil {
			logger.Error("stop label", "error", err)
		}
	}()

	playErr := play(ctx, l, sc, cfg.StepTimeout, out)
	if err := l.Flush(ctx); err != nil {
		logger.Warn("flush sale journal", "error", err)
	}

	if cfg.MetricsAddr != "" {
		if err := serveMetrics(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			return errors.Join(playErr, err)
		}
	}
	return playErr
}

func openStore(ctx context.Context, cfg config) (store.Store, error) {
	switch cfg.Store {
	case storeSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case storeBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		return s, nil
	default:
		return memory.New(), nil
	}
}

// auditLog records audit events as debug log lines.
func auditLog(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		logger.DebugContext(ctx, "audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
		)
		return nil
	})
}

// serveMetrics exposes reg until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
