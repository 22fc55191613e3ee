package observability

import (
	"sync"
	"time"
)

type StatsSnapshot struct {
	Runs              uint64            `json:"runs"`
	PagesCrawled      uint64            `json:"pages_crawled"`
	JobsDiscovered    uint64            `json:"jobs_discovered"`
	ErrorsTotal       uint64            `json:"errors_total"`
	CrawlSecondsAvg   float64           `json:"crawl_seconds_avg"`
	PagesByPortal     map[string]uint64 `json:"pages_by_portal,omitempty"`
	JobsByPortal      map[string]uint64 `json:"jobs_by_portal,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
	LastRunAt         *time.Time        `json:"last_run_at,omitempty"`
}

// Stats collects scrape telemetry. A fresh Stats is made per search run; the
// server keeps a long-lived one and merges finished runs into it.
type Stats struct {
	mu sync.Mutex

	runs           uint64
	pagesCrawled   uint64
	jobsDiscovered uint64
	errorsTotal    uint64
	crawlCount     uint64
	crawlNanos     uint64
	lastRunAt      time.Time

	pagesByPortal     map[string]uint64
	jobsByPortal      map[string]uint64
	errorsByType      map[string]uint64
	errorsByComponent map[string]uint64
}

func NewStats() *Stats {
	return &Stats{
		pagesByPortal:     map[string]uint64{},
		jobsByPortal:      map[string]uint64{},
		errorsByType:      map[string]uint64{},
		errorsByComponent: map[string]uint64{},
	}
}

func (s *Stats) IncPagesCrawled(portal string) {
	s.mu.Lock()
	s.pagesCrawled++
	s.pagesByPortal[orUnknown(portal)]++
	s.mu.Unlock()
}

func (s *Stats) AddJobsDiscovered(portal string, n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.jobsDiscovered += uint64(n)
	s.jobsByPortal[orUnknown(portal)] += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) IncError(errType, component string) {
	s.mu.Lock()
	s.errorsTotal++
	s.errorsByType[orUnknown(errType)]++
	s.errorsByComponent[orUnknown(component)]++
	s.mu.Unlock()
}

func (s *Stats) ObserveCrawlDuration(_ string, seconds float64) {
	if seconds <= 0 {
		return
	}
	s.mu.Lock()
	s.crawlCount++
	s.crawlNanos += uint64(seconds * 1e9)
	s.mu.Unlock()
}

// Merge folds a finished run's stats into s and counts it as one run.
func (s *Stats) Merge(run *Stats) {
	if run == nil || run == s {
		return
	}
	snap := run.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastRunAt = time.Now()
	s.pagesCrawled += snap.PagesCrawled
	s.jobsDiscovered += snap.JobsDiscovered
	s.errorsTotal += snap.ErrorsTotal

	run.mu.Lock()
	s.crawlCount += run.crawlCount
	s.crawlNanos += run.crawlNanos
	run.mu.Unlock()

	addMap(s.pagesByPortal, snap.PagesByPortal)
	addMap(s.jobsByPortal, snap.JobsByPortal)
	addMap(s.errorsByType, snap.ErrorsByType)
	addMap(s.errorsByComponent, snap.ErrorsByComponent)
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg := 0.0
	if s.crawlCount > 0 {
		avg = float64(s.crawlNanos) / float64(s.crawlCount) / 1e9
	}
	snap := StatsSnapshot{
		Runs:              s.runs,
		PagesCrawled:      s.pagesCrawled,
		JobsDiscovered:    s.jobsDiscovered,
		ErrorsTotal:       s.errorsTotal,
		CrawlSecondsAvg:   avg,
		PagesByPortal:     copyMap(s.pagesByPortal),
		JobsByPortal:      copyMap(s.jobsByPortal),
		ErrorsByType:      copyMap(s.errorsByType),
		ErrorsByComponent: copyMap(s.errorsByComponent),
	}
	if !s.lastRunAt.IsZero() {
		t := s.lastRunAt
		snap.LastRunAt = &t
	}
	return snap
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func addMap(dst, src map[string]uint64) {
	for k, v := range src {
		dst[k] += v
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
