package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/jobportals/internal/export"
	"github.com/baxromumarov/jobportals/internal/httpx"
	"github.com/baxromumarov/jobportals/internal/scraper"
)

const indeedPage = `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a data-jk="abc123"><span>Go Entwickler</span></a></h2>
  <span data-testid="company-name">ACME GmbH</span>
  <div data-testid="text-location">Berlin</div>
  <div class="job-snippet">Backend mit Go und Docker</div>
</div>
</body></html>`

type portalFetcher struct{}

func (portalFetcher) Get(_ context.Context, rawURL string) (httpx.Page, error) {
	if strings.Contains(rawURL, "indeed") {
		return httpx.Page{URL: rawURL, Status: 200, Body: []byte(indeedPage)}, nil
	}
	return httpx.Page{URL: rawURL, Status: 503}, &httpx.FetchError{Status: 503, Err: errors.New("status 503")}
}

func TestRunJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-keywords", "Go", "-location", "Berlin", "-portals", "Indeed.de, StepStone.de", "-pages", "1"},
		&stdout, &stderr, portalFetcher{})
	require.Equal(t, 0, code, stderr.String())

	var jobs []scraper.Job
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Entwickler", jobs[0].Title)
	assert.Equal(t, scraper.PortalIndeed, jobs[0].Portal)

	assert.Contains(t, stderr.String(), "portal failed")
	assert.Contains(t, stderr.String(), "StepStone.de")
	assert.Contains(t, stderr.String(), "kind=network")
}

func TestRunCSVToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "jobs.csv")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-keywords", "Go", "-location", "Berlin", "-portals", "Indeed.de", "-pages", "1", "-format", "csv", "-out", out},
		&stdout, &stderr, portalFetcher{})
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	jobs, err := export.ReadJobs(f)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ACME GmbH", jobs[0].Company)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "missing keywords", args: []string{"-location", "Berlin"}, code: 1},
		{name: "unknown portal", args: []string{"-keywords", "Go", "-location", "Berlin", "-portals", "Monster.com"}, code: 1},
		{name: "bad job type", args: []string{"-keywords", "Go", "-location", "Berlin", "-type", "Gig"}, code: 1},
		{name: "bad format", args: []string{"-keywords", "Go", "-location", "Berlin", "-format", "xml"}, code: 2},
		{name: "unknown flag", args: []string{"-nope"}, code: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr, portalFetcher{})
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-keywords", "Go", "-location", "Köln"}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, scraper.DefaultPortals, opts.query.Portals)
	assert.Equal(t, 5, opts.query.MaxPages)
	assert.Equal(t, "json", opts.format)
}

func TestParseFlagsAutoOutput(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-format", "csv", "-out", "auto"}, &stderr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(opts.out, "job_results_"))
	assert.True(t, strings.HasSuffix(opts.out, ".csv"))
}
