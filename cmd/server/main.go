package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/jobportals/internal/api"
	"github.com/baxromumarov/jobportals/internal/config"
	"github.com/baxromumarov/jobportals/internal/core"
	"github.com/baxromumarov/jobportals/internal/httpx"
	"github.com/baxromumarov/jobportals/internal/observability"
	"github.com/baxromumarov/jobportals/internal/scraper"
	"github.com/baxromumarov/jobportals/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := httpx.NewCollyFetcher("")
	fetcher.SetRespectRobots(cfg.Scraper.RespectRobots)
	fetcher.SetTimeout(cfg.RequestTimeout())
	fetcher.SetDefaultLimit(cfg.HostInterval(), 2)
	for host, per := range cfg.HostIntervals() {
		fetcher.SetHostLimit(host, per, 1)
	}

	aggregator := scraper.New(fetcher, logger)
	aggregator.Parallel = cfg.Scraper.ParallelPortals

	// The database is optional: without it searches still run, only history is unavailable.
	var (
		jobStore api.JobStore
		repo     core.Repository
	)
	if cfg.DatabaseURL != "" {
		dbStore, err := store.NewStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer dbStore.Close()

		if err := dbStore.RunMigrations(""); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		jobStore, repo = dbStore, dbStore
	} else {
		slog.Warn("DATABASE_URL not set, search history disabled")
	}

	stats := observability.NewStats()

	scheduler := core.NewSchedulerService(aggregator, repo, stats, logger)
	scheduler.Configure(cfg.Searches, cfg.Scraper.MaxPages, cfg.Retention())
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	srv := api.NewServer(aggregator, jobStore, stats, cfg.Scraper.MaxPages, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "portals", aggregator.Portals())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
