package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/jobportals/internal/httpx"
	"github.com/baxromumarov/jobportals/internal/observability"
)

// Fetcher performs exactly one GET per call. *httpx.CollyFetcher satisfies it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (httpx.Page, error)
}

// Sink receives run telemetry. *observability.Stats satisfies it.
type Sink interface {
	IncPagesCrawled(portal string)
	AddJobsDiscovered(portal string, n int)
	IncError(kind, portal string)
	ObserveCrawlDuration(portal string, seconds float64)
}

type nopSink struct{}

func (nopSink) IncPagesCrawled(string) {}
func (nopSink) AddJobsDiscovered(string, int) {}
func (nopSink) IncError(string, string) {}
func (nopSink) ObserveCrawlDuration(string, float64) {}

// Driver walks one portal's result pages: fetch, extract, decide whether to
// continue. Pages of one portal are always fetched strictly in sequence with a
// randomized pause between them.
type Driver struct {
	fetcher Fetcher
	logger  *slog.Logger

	// Sleep waits between pages. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter picks the pause within [lo, hi).
	Jitter func(lo, hi time.Duration) time.Duration
}

func NewDriver(fetcher Fetcher, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		fetcher: fetcher,
		logger:  logger,
		Sleep:   sleepCtx,
		Jitter:  uniformJitter,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

// cancelledError is reported when the caller's context ends mid-run.
const cancelledError = "Unexpected error: search cancelled"

type jobKey struct {
	title   string
	company string
}

// Run scrapes a for q and returns the jobs in page then card order together with
// the portal's diagnostics. Failures end the run early and are reported in the
// diagnostics; the jobs collected up to that point are kept. sink may be nil.
func (d *Driver) Run(ctx context.Context, a Adapter, q Query, sink Sink) ([]Job, Diagnostics) {
	if sink == nil {
		sink = nopSink{}
	}
	start := time.Now()
	portal := a.Name()
	pol := a.Policy()
	log := d.logger.With("portal", portal)

	pages := q.MaxPages
	if pol.MaxPages > 0 && pol.MaxPages < pages {
		pages = pol.MaxPages
	}

	jobs := []Job{}
	diag := Diagnostics{SelectorsTried: []string{}}
	seen := make(map[jobKey]struct{})

	for page := 0; page < pages; page++ {
		if page > 0 {
			if err := d.Sleep(ctx, d.Jitter(pol.MinDelay, pol.MaxDelay)); err != nil {
				diag.Error = cancelledError
				sink.IncError(observability.ErrorCancelled, portal)
				break
			}
		}

		target := a.BuildURL(q, page)
		diag.URL = target
		res, err := d.fetcher.Get(ctx, target)
		if res.URL != "" {
			diag.URL = res.URL
		}
		if page == 0 {
			diag.StatusCode = res.Status
		}
		if err != nil && ctx.Err() != nil {
			diag.Error = cancelledError
			sink.IncError(observability.ErrorCancelled, portal)
			break
		}
		if err != nil {
			diag.Error = "Network error: " + err.Error()
			sink.IncError(observability.ClassifyFetchError(err), portal)
			log.Error("fetch failed", "page", page+1, "url", target, "error", err)
			break
		}
		sink.IncPagesCrawled(portal)

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if err != nil {
			diag.Error = "Parsing error: " + err.Error()
			sink.IncError(observability.ErrorParsing, portal)
			log.Error("parse failed", "page", page+1, "error", err)
			break
		}

		var trace func(string)
		if page == 0 {
			trace = func(s string) { diag.SelectorsTried = append(diag.SelectorsTried, s) }
			diag.HTMLSample = htmlSample(doc)
		}
		cards := MatchAll(doc.Selection, a.Containers(page), pol.ContainerLimit, trace)
		log.Info("page scraped", "page", page+1, "cards", cards.Length())

		if cards.Length() == 0 {
			if page == 0 && pol.EmptyHint != "" {
				diag.Error = pol.EmptyHint
				sink.IncError(observability.ClassifyScrapeError(errors.New(pol.EmptyHint)), portal)
			}
			break
		}

		added := 0
		cards.Each(func(i int, sel *goquery.Selection) {
			job, ok := d.parseCard(log, a, sel, q, i)
			if !ok {
				return
			}
			key := jobKey{title: job.Title, company: job.Company}
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			jobs = append(jobs, job)
			added++
		})
		if added == 0 {
			break
		}
		diag.PagesScraped++
	}

	diag.JobsFound = len(jobs)
	if diag.JobsFound > 0 {
		diag.HTMLSample = ""
	}
	sink.AddJobsDiscovered(portal, len(jobs))
	sink.ObserveCrawlDuration(portal, time.Since(start).Seconds())
	return jobs, diag
}

// parseCard isolates one card: a panic while reading it skips the card only.
func (d *Driver) parseCard(log *slog.Logger, a Adapter, sel *goquery.Selection, q Query, idx int) (job Job, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("card skipped", "card", idx, "error", fmt.Sprintf("%v", r))
			job, ok = Job{}, false
		}
	}()
	return a.ParseCard(sel, q)
}
