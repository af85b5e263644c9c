package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/aluiziolira/go-crawl-books/crawler"
	"github.com/aluiziolira/go-crawl-books/parser"
	"github.com/aluiziolira/go-crawl-books/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// harness runs the serial baseline, resets the engine, runs the parallel
// crawl, and publishes the comparison.
type harness struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	// transport replaces the fetcher's HTTP transport when set.
	transport http.RoundTripper
}

func (h *harness) run(ctx context.Context) error {
	cfg := h.cfg
	slog.Info("starting crawl",
		slog.String("start_url", cfg.StartURL),
		slog.Int("max_retries", cfg.MaxRetries),
		slog.Int("max_in_flight", cfg.MaxInFlight),
	)

	metrics := crawler.NewMetrics()
	fetcher, err := crawler.NewCollyFetcher(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}
	if h.transport != nil {
		fetcher.WithTransport(h.transport)
	}
	resolver, err := crawler.NewResolver(cfg.ResolverCacheSize)
	if err != nil {
		return fmt.Errorf("initialising resolver: %w", err)
	}
	engine := crawler.NewEngine(fetcher, parser.NewHTMLExtractor(), resolver, metrics)

	if cfg.MetricsAddr != "" {
		server := startMetricsServer(cfg.MetricsAddr, metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	serial, err := engine.Run(ctx, crawler.Serial, cfg.StartURL)
	if err != nil {
		return err
	}
	logRun(serial.Strategy, serial.Visited, serial.State.TotalCount, serial.Elapsed, len(serial.FailedURLs))

	engine.Reset()

	parallel, err := engine.Run(ctx, crawler.Parallel, cfg.StartURL)
	if err != nil {
		return err
	}
	logRun(parallel.Strategy, parallel.Visited, parallel.State.TotalCount, parallel.Elapsed, len(parallel.FailedURLs))

	r, err := report.New(cfg.StartURL, serial, parallel)
	if err != nil {
		return err
	}
	if !r.Matched() {
		slog.Warn("serial and parallel results differ")
	}

	if err := report.Publish(r, cfg.OutputFormat, cfg.OutputFile, h.stdout, h.stderr); err != nil {
		slog.Error("publishing report", slog.Any("error", err))
	}
	return nil
}

func startMetricsServer(addr string, metrics *crawler.Metrics) *http.Server {
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func logRun(strategy string, visited int, records int64, elapsed time.Duration, failed int) {
	slog.Info("crawl finished",
		slog.String("strategy", strategy),
		slog.Int("visited", visited),
		slog.Int64("records", records),
		slog.Int("failed", failed),
		slog.Duration("elapsed", elapsed),
	)
}
