// Command grocer serves grocery price-comparison data scraped from
// trolley.co.uk over a small JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FranksOps/grocer/internal/api"
	"github.com/FranksOps/grocer/internal/config"
	"github.com/FranksOps/grocer/internal/pricing"
	"github.com/FranksOps/grocer/internal/scraper"
	"github.com/FranksOps/grocer/pkg/ratelimit"
)

func main() {
	defaults := config.DefaultConfig()

	hostDefault := defaults.Host
	if value, ok := config.EnvString("GROCER_HOST"); ok {
		hostDefault = value
	}
	portDefault := defaults.Port
	if value, ok, err := config.EnvInt("GROCER_PORT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GROCER_PORT: %v\n", err)
		os.Exit(1)
	} else if ok {
		portDefault = value
	}
	debugDefault := defaults.Debug
	if value, ok, err := config.EnvBool("GROCER_DEBUG"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GROCER_DEBUG: %v\n", err)
		os.Exit(1)
	} else if ok {
		debugDefault = value
	}
	ttlDefault := int(defaults.CacheTTL.Seconds())
	if value, ok, err := config.EnvInt("GROCER_CACHE_TTL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GROCER_CACHE_TTL: %v\n", err)
		os.Exit(1)
	} else if ok {
		ttlDefault = value
	}

	host := flag.String("host", hostDefault, "Listen address")
	port := flag.Int("port", portDefault, "Listen port")
	debug := flag.Bool("debug", debugDefault, "Enable debug logging")
	cacheTTL := flag.Int("cache-ttl", ttlDefault, "Cache TTL in seconds")
	cacheMaxEntries := flag.Int("cache-max-entries", defaults.CacheMaxEntries, "Cache capacity bound, 0 = unbounded")
	batchDelayMs := flag.Int("batch-delay", int(defaults.BatchDelay.Milliseconds()), "Delay between batch fetches (milliseconds)")
	baseURL := flag.String("base-url", defaults.BaseURL, "Aggregator site base URL")
	flag.Parse()

	cfg := defaults
	cfg.Host = *host
	cfg.Port = *port
	cfg.Debug = *debug
	cfg.CacheTTL = time.Duration(*cacheTTL) * time.Second
	cfg.CacheMaxEntries = *cacheMaxEntries
	cfg.BatchDelay = time.Duration(*batchDelayMs) * time.Millisecond
	cfg.BaseURL = *baseURL

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.FetchTimeout,
	})
	if err != nil {
		slog.Error("initialising fetcher", "error", err)
		os.Exit(1)
	}

	cache := pricing.NewCache(cfg.CacheTTL, cfg.CacheMaxEntries)
	svc := pricing.NewService(pricing.ServiceConfig{
		MaxResultsCeiling: cfg.MaxResultsCeiling,
		RetryBackoff:      cfg.RetryBackoff,
		BatchDelay:        cfg.BatchDelay,
		MaxBatchQueries:   cfg.MaxBatchQueries,
		Logger:            logger,
	}, fetcher, cache)

	limiter := ratelimit.New(map[ratelimit.Class][]ratelimit.Window{
		ratelimit.ClassSingle: {
			{Limit: cfg.SinglePerMinute, Period: time.Minute},
			{Limit: cfg.SinglePerHour, Period: time.Hour},
		},
		ratelimit.ClassBatch: {
			{Limit: cfg.BatchPerMinute, Period: time.Minute},
		},
	})
	defer limiter.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           api.NewServer(cfg, svc, limiter, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting price API",
			"addr", server.Addr,
			"debug", cfg.Debug,
			"cache_ttl", cfg.CacheTTL,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
