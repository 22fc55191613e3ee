// Command scrape runs one search across the German job portals and prints the
// results as JSON or CSV.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/baxromumarov/jobportals/internal/export"
	"github.com/baxromumarov/jobportals/internal/httpx"
	"github.com/baxromumarov/jobportals/internal/observability"
	"github.com/baxromumarov/jobportals/internal/scraper"
)

type options struct {
	query   scraper.Query
	format  string
	out     string
	verbose bool
	robots  bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run returns the process exit code. fetcher is nil outside tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, fetcher scraper.Fetcher) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if fetcher == nil {
		f := httpx.NewCollyFetcher("")
		f.SetRespectRobots(opts.robots)
		fetcher = f
	}
	aggregator := scraper.New(fetcher, logger)

	stats := observability.NewStats()
	jobs, diags, err := aggregator.Search(ctx, opts.query, stats)
	if err != nil {
		logger.Error("search rejected", "error", err)
		return 1
	}
	logDiagnostics(logger, diags)

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if err := writeResults(w, opts.format, jobs); err != nil {
		logger.Error("failed to write results", "error", err)
		return 1
	}

	snap := stats.Snapshot()
	logger.Info("search finished",
		"jobs", len(jobs),
		"pages", snap.PagesCrawled,
		"errors", snap.ErrorsTotal,
		"output", orStdout(opts.out),
	)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts    options
		portals string
	)
	fs.StringVar(&opts.query.Keywords, "keywords", "", "search keywords (required)")
	fs.StringVar(&opts.query.Location, "location", "", "city or region (required)")
	fs.StringVar(&opts.query.JobType, "type", "", "Full-time, Part-time, Remote, Contract or Internship")
	fs.StringVar(&portals, "portals", "", "comma separated portal names (default: "+strings.Join(scraper.DefaultPortals, ", ")+")")
	fs.IntVar(&opts.query.MaxPages, "pages", 5, "maximum pages per portal")
	fs.StringVar(&opts.format, "format", "json", "output format: json or csv")
	fs.StringVar(&opts.out, "out", "", "output file (default stdout); with -format csv and -out auto a timestamped name is used")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.BoolVar(&opts.robots, "robots", false, "honor robots.txt")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.format != "json" && opts.format != "csv" {
		return opts, fmt.Errorf("unknown format %q", opts.format)
	}
	for _, p := range strings.Split(portals, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.query.Portals = append(opts.query.Portals, p)
		}
	}
	if opts.out == "auto" {
		ext := "." + opts.format
		opts.out = strings.TrimSuffix(export.FileName(time.Now()), ".csv") + ext
	}
	opts.query = opts.query.WithDefaults(scraper.MinPages)
	return opts, nil
}

func writeResults(w io.Writer, format string, jobs []scraper.Job) error {
	if format == "csv" {
		return export.WriteJobs(w, jobs)
	}
	if jobs == nil {
		jobs = []scraper.Job{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jobs)
}

func logDiagnostics(logger *slog.Logger, diags map[string]scraper.Diagnostics) {
	portals := make([]string, 0, len(diags))
	for p := range diags {
		portals = append(portals, p)
	}
	sort.Strings(portals)

	for _, p := range portals {
		d := diags[p]
		if d.Failed() {
			logger.Warn("portal failed",
				"portal", p,
				"kind", observability.ClassifyScrapeError(errors.New(d.Error)),
				"url", d.URL,
				"status", d.StatusCode,
				"error", d.Error,
				"selectors", d.SelectorsTried,
			)
			continue
		}
		logger.Info("portal ok", "portal", p, "jobs", d.JobsFound, "pages", d.PagesScraped)
	}
}

func orStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
