package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "LOG_LEVEL", "SCRAPER_MAX_PAGES",
		"SCRAPER_RESPECT_ROBOTS", "SCRAPER_PARALLEL_PORTALS", "RETENTION_DAYS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultMaxPages, cfg.Scraper.MaxPages)
	assert.Equal(t, DefaultRetentionDays, cfg.RetentionDays)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention())
	assert.False(t, cfg.Scraper.RespectRobots)
	assert.Empty(t, cfg.Searches)
}

func TestLoadFileYAMLAndSearchDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "9000"
scraper:
  max_pages: 3
  parallel_portals: true
  host_limits:
    www.linkedin.com: 3000
searches:
  - keywords: Go
    location: Berlin
  - name: custom
    keywords: Rust
    location: Hamburg
    max_pages: 7
    schedule: "0 6 * * *"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Scraper.ParallelPortals)
	assert.Equal(t, map[string]time.Duration{"www.linkedin.com": 3 * time.Second}, cfg.HostIntervals())
	require.Len(t, cfg.Searches, 2)

	assert.Equal(t, "Go in Berlin", cfg.Searches[0].Name)
	assert.Equal(t, 3, cfg.Searches[0].MaxPages)
	assert.Equal(t, DefaultSchedule, cfg.Searches[0].Schedule)

	assert.Equal(t, "custom", cfg.Searches[1].Name)
	assert.Equal(t, 7, cfg.Searches[1].MaxPages)
	assert.Equal(t, "0 6 * * *", cfg.Searches[1].Schedule)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "port: \"9000\"\nscraper:\n  max_pages: 3\n")
	t.Setenv("PORT", "7070")
	t.Setenv("SCRAPER_MAX_PAGES", "12")
	t.Setenv("SCRAPER_RESPECT_ROBOTS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 12, cfg.Scraper.MaxPages)
	assert.True(t, cfg.Scraper.RespectRobots)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "port: [unterminated"},
		{name: "bad int env", env: map[string]string{"SCRAPER_MAX_PAGES": "many"}},
		{name: "bad bool env", env: map[string]string{"SCRAPER_PARALLEL_PORTALS": "sometimes"}},
		{name: "pages out of range", yaml: "scraper:\n  max_pages: 101\n"},
		{name: "search without location", yaml: "searches:\n  - keywords: Go\n"},
		{name: "zero host limit", yaml: "scraper:\n  host_limits:\n    de.indeed.com: 0\n"},
		{name: "negative retention", env: map[string]string{"RETENTION_DAYS": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(writeFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSlogLevelFallsBackToInfo(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
