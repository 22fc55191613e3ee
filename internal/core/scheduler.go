package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/baxromumarov/jobportals/internal/config"
	"github.com/baxromumarov/jobportals/internal/observability"
	"github.com/baxromumarov/jobportals/internal/scraper"
)

// RetentionSpec fires the cleanup once a day.
const RetentionSpec = "@daily"

type Searcher interface {
	Search(ctx context.Context, q scraper.Query, sink scraper.Sink) ([]scraper.Job, map[string]scraper.Diagnostics, error)
}

type Repository interface {
	SaveSearch(ctx context.Context, name string, q scraper.Query, jobs []scraper.Job, diags map[string]scraper.Diagnostics) (int64, error)
	DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SchedulerService runs saved searches on their cron schedules and prunes stale jobs.
// repo may be nil, in which case results are only logged and counted.
type SchedulerService struct {
	cron      *cron.Cron
	searcher  Searcher
	repo      Repository
	stats     *observability.Stats
	logger    *slog.Logger
	searches  []config.SavedSearch
	maxPages  int
	retention time.Duration

	mu      sync.Mutex
	running map[string]bool
}

func NewSchedulerService(searcher Searcher, repo Repository, stats *observability.Stats, logger *slog.Logger) *SchedulerService {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = observability.NewStats()
	}
	return &SchedulerService{
		cron:     cron.New(),
		searcher: searcher,
		repo:     repo,
		stats:    stats,
		logger:   logger,
		maxPages: config.DefaultMaxPages,
		running:  make(map[string]bool),
	}
}

// Configure sets the saved searches, the default page budget and the retention window.
// It must be called before Start.
func (s *SchedulerService) Configure(searches []config.SavedSearch, maxPages int, retention time.Duration) {
	s.searches = searches
	if maxPages > 0 {
		s.maxPages = maxPages
	}
	s.retention = retention
}

func (s *SchedulerService) Start(ctx context.Context) error {
	for _, saved := range s.searches {
		if _, err := s.cron.AddFunc(saved.Schedule, func() { s.RunSaved(ctx, saved) }); err != nil {
			return fmt.Errorf("schedule %q (%s): %w", saved.Name, saved.Schedule, err)
		}
	}
	if s.repo != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(RetentionSpec, func() { s.Cleanup(ctx) }); err != nil {
			return fmt.Errorf("schedule retention: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "searches", len(s.searches), "retention", s.retention.String())
	return nil
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunSaved executes one saved search. Overlapping runs of the same search are skipped.
func (s *SchedulerService) RunSaved(ctx context.Context, saved config.SavedSearch) {
	if !s.acquire(saved.Name) {
		s.logger.Warn("saved search still running, skipping tick", "search", saved.Name)
		return
	}
	defer s.release(saved.Name)

	q := scraper.Query{
		Keywords: saved.Keywords,
		Location: saved.Location,
		JobType:  saved.JobType,
		Portals:  saved.Portals,
		MaxPages: saved.MaxPages,
	}.WithDefaults(s.maxPages)

	run := observability.NewStats()
	jobs, diags, err := s.searcher.Search(ctx, q, run)
	s.stats.Merge(run)
	if err != nil {
		s.logger.Error("saved search failed", "search", saved.Name, "error", err)
		return
	}

	failed := 0
	for portal, d := range diags {
		if !d.Failed() {
			continue
		}
		failed++
		// Already counted by the run's sink; only the kind is reported here.
		s.logger.Warn("portal failed",
			"search", saved.Name,
			"portal", portal,
			"kind", observability.ClassifyScrapeError(errors.New(d.Error)),
			"error", d.Error,
		)
	}
	s.logger.Info("saved search finished", "search", saved.Name, "jobs", len(jobs), "failed_portals", failed)

	if s.repo == nil {
		return
	}
	id, err := s.repo.SaveSearch(ctx, saved.Name, q, jobs, diags)
	if err != nil {
		s.stats.IncError(observability.ErrorStore, "scheduler")
		s.logger.Error("failed to store saved search", "search", saved.Name, "error", err)
		return
	}
	s.logger.Debug("saved search stored", "search", saved.Name, "id", id)
}

// Cleanup deletes jobs not seen within the retention window.
func (s *SchedulerService) Cleanup(ctx context.Context) {
	if s.repo == nil || s.retention <= 0 {
		return
	}
	count, err := s.repo.DeleteOldJobs(ctx, s.retention)
	if err != nil {
		s.stats.IncError(observability.ErrorStore, "retention")
		s.logger.Error("retention cleanup failed", "error", err)
		return
	}
	s.logger.Info("retention cleanup done", "deleted", count)
}

func (s *SchedulerService) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *SchedulerService) release(name string) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()
}
