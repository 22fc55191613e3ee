package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/baxromumarov/jobportals/internal/observability"
)

// Aggregator runs the Driver across the requested portals and merges the results.
type Aggregator struct {
	driver   *Driver
	logger   *slog.Logger
	adapters map[string]Adapter
	order    []string

	// Parallel scrapes portals concurrently. Output order is unaffected and
	// pagination within a portal stays sequential.
	Parallel bool
}

func NewAggregator(driver *Driver, logger *slog.Logger, adapters ...Adapter) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	agg := &Aggregator{
		driver:   driver,
		logger:   logger,
		adapters: make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		if _, ok := agg.adapters[a.Name()]; ok {
			continue
		}
		agg.adapters[a.Name()] = a
		agg.order = append(agg.order, a.Name())
	}
	return agg
}

// Portals lists the portal names this aggregator can scrape, in registration order.
func (g *Aggregator) Portals() []string {
	return append([]string(nil), g.order...)
}

type portalResult struct {
	jobs []Job
	diag Diagnostics
}

// Search scrapes every portal named in q. It returns an error only for an
// invalid query; portal failures are reported in the diagnostics map. sink
// receives this run's telemetry and may be nil.
func (g *Aggregator) Search(ctx context.Context, q Query, sink Sink) ([]Job, map[string]Diagnostics, error) {
	if err := q.Validate(g.order); err != nil {
		return nil, nil, err
	}
	if sink == nil {
		sink = nopSink{}
	}
	portals := uniquePortals(q.Portals)
	results := make([]portalResult, len(portals))

	if g.Parallel {
		var wg sync.WaitGroup
		for i, name := range portals {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = g.runPortal(ctx, g.adapters[name], q, sink)
			}()
		}
		wg.Wait()
	} else {
		for i, name := range portals {
			results[i] = g.runPortal(ctx, g.adapters[name], q, sink)
		}
	}

	jobs := []Job{}
	diags := make(map[string]Diagnostics, len(portals))
	for i, name := range portals {
		jobs = append(jobs, results[i].jobs...)
		diags[name] = results[i].diag
		g.logger.Info("portal finished",
			"portal", name,
			"jobs", results[i].diag.JobsFound,
			"pages", results[i].diag.PagesScraped,
			"error", results[i].diag.Error,
		)
	}
	return jobs, diags, nil
}

// runPortal contains a panicking adapter to its own diagnostics entry.
func (g *Aggregator) runPortal(ctx context.Context, a Adapter, q Query, sink Sink) (res portalResult) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("portal panicked", "portal", a.Name(), "error", fmt.Sprintf("%v", r))
			sink.IncError(observability.ErrorPanic, a.Name())
			res = portalResult{
				jobs: nil,
				diag: Diagnostics{
					Error:          fmt.Sprintf("Unexpected error: %v", r),
					SelectorsTried: []string{},
				},
			}
		}
	}()
	jobs, diag := g.driver.Run(ctx, a, q, sink)
	return portalResult{jobs: jobs, diag: diag}
}

func uniquePortals(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
