// Package config loads settings from .env, an optional YAML file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = "8080"
	DefaultConfigFile    = "configs/config.yaml"
	DefaultMaxPages      = 5
	DefaultRetentionDays = 30
	DefaultSchedule      = "@every 6h"
)

type SavedSearch struct {
	Name     string   `yaml:"name"`
	Keywords string   `yaml:"keywords"`
	Location string   `yaml:"location"`
	JobType  string   `yaml:"job_type"`
	Portals  []string `yaml:"portals"`
	MaxPages int      `yaml:"max_pages"`
	Schedule string   `yaml:"schedule"`
}

type ScraperConfig struct {
	MaxPages         int  `yaml:"max_pages"`
	RespectRobots    bool `yaml:"respect_robots"`
	ParallelPortals  bool `yaml:"parallel_portals"`
	TimeoutSeconds   int  `yaml:"timeout_seconds"`
	HostIntervalMsec int  `yaml:"host_interval_ms"`

	// HostLimits overrides the pacing floor per host (or portal URL), in milliseconds.
	HostLimits map[string]int `yaml:"host_limits"`
}

type Config struct {
	Port          string        `yaml:"port"`
	DatabaseURL   string        `yaml:"database_url"`
	LogLevel      string        `yaml:"log_level"`
	RetentionDays int           `yaml:"retention_days"`
	Scraper       ScraperConfig `yaml:"scraper"`
	Searches      []SavedSearch `yaml:"searches"`
}

// Load reads .env (if present), then CONFIG_FILE (default configs/config.yaml,
// missing file ignored), then applies environment overrides and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using environment only", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	var err error
	if c.Scraper.MaxPages, err = envInt("SCRAPER_MAX_PAGES", c.Scraper.MaxPages); err != nil {
		return err
	}
	if c.RetentionDays, err = envInt("RETENTION_DAYS", c.RetentionDays); err != nil {
		return err
	}
	if c.Scraper.RespectRobots, err = envBool("SCRAPER_RESPECT_ROBOTS", c.Scraper.RespectRobots); err != nil {
		return err
	}
	if c.Scraper.ParallelPortals, err = envBool("SCRAPER_PARALLEL_PORTALS", c.Scraper.ParallelPortals); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.Scraper.MaxPages == 0 {
		c.Scraper.MaxPages = DefaultMaxPages
	}
	for i := range c.Searches {
		s := &c.Searches[i]
		if s.MaxPages == 0 {
			s.MaxPages = c.Scraper.MaxPages
		}
		if s.Schedule == "" {
			s.Schedule = DefaultSchedule
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s in %s", s.Keywords, s.Location)
		}
	}
}

func (c *Config) Validate() error {
	if c.Scraper.MaxPages < 1 || c.Scraper.MaxPages > 100 {
		return fmt.Errorf("scraper.max_pages must be within [1, 100], got %d", c.Scraper.MaxPages)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative, got %d", c.RetentionDays)
	}
	for host, ms := range c.Scraper.HostLimits {
		if ms <= 0 {
			return fmt.Errorf("scraper.host_limits[%s] must be positive, got %d", host, ms)
		}
	}
	for i, s := range c.Searches {
		if strings.TrimSpace(s.Keywords) == "" || strings.TrimSpace(s.Location) == "" {
			return fmt.Errorf("searches[%d]: keywords and location are required", i)
		}
	}
	return nil
}

// Retention is how long jobs are kept after they were last seen. Zero disables cleanup.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

func (c *Config) HostInterval() time.Duration {
	return time.Duration(c.Scraper.HostIntervalMsec) * time.Millisecond
}

// HostIntervals returns scraper.host_limits as durations.
func (c *Config) HostIntervals() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Scraper.HostLimits))
	for host, ms := range c.Scraper.HostLimits {
		out[host] = time.Duration(ms) * time.Millisecond
	}
	return out
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
