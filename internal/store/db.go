package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/baxromumarov/jobportals/internal/scraper"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations executes the schema file at schemaPath, or the bundled schema when the path is empty.
func (s *Store) RunMigrations(schemaPath string) error {
	content := schemaSQL
	if schemaPath != "" {
		raw, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		content = string(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, content); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Job is a persisted listing. The same (portal, title, company) seen again in
// a later search refreshes the row instead of adding one.
type Job struct {
	ID int64 `json:"id"`
	scraper.Job
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

type Search struct {
	ID          int64                          `json:"id"`
	Name        string                         `json:"name,omitempty"`
	Query       scraper.Query                  `json:"query"`
	JobsFound   int                            `json:"jobs_found"`
	CreatedAt   time.Time                      `json:"created_at"`
	Diagnostics map[string]scraper.Diagnostics `json:"diagnostics,omitempty"`
}

// SaveSearch records one aggregator run: the query, each portal's diagnostics
// and an upsert of every job. name is empty for ad-hoc searches.
func (s *Store) SaveSearch(ctx context.Context, name string, q scraper.Query, jobs []scraper.Job, diags map[string]scraper.Diagnostics) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO searches (name, keywords, location, job_type, portals, max_pages, jobs_found)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, name, q.Keywords, q.Location, q.JobType, pq.Array(q.Portals), q.MaxPages, len(jobs)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert search: %w", err)
	}

	portals := make([]string, 0, len(diags))
	for p := range diags {
		portals = append(portals, p)
	}
	sort.Strings(portals)
	for _, p := range portals {
		d := diags[p]
		if _, err := tx.ExecContext(ctx, `
INSERT INTO search_diagnostics (search_id, portal, url, status_code, error, jobs_found, pages_scraped, selectors_tried, html_sample)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, id, p, d.URL, d.StatusCode, d.Error, d.JobsFound, d.PagesScraped, pq.Array(d.SelectorsTried), d.HTMLSample); err != nil {
			return 0, fmt.Errorf("insert diagnostics for %s: %w", p, err)
		}
	}

	for _, j := range jobs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO jobs (portal, title, company, location, summary, url, salary, job_level, skills, posted_date, last_search_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (portal, title, company) DO UPDATE SET
    location = EXCLUDED.location,
    summary = EXCLUDED.summary,
    url = COALESCE(NULLIF(EXCLUDED.url, ''), jobs.url),
    salary = COALESCE(NULLIF(EXCLUDED.salary, ''), jobs.salary),
    job_level = EXCLUDED.job_level,
    skills = EXCLUDED.skills,
    posted_date = COALESCE(NULLIF(jobs.posted_date, ''), EXCLUDED.posted_date),
    last_search_id = EXCLUDED.last_search_id,
    last_seen_at = NOW()
`, j.Portal, j.Title, j.Company, j.Location, j.Summary, j.URL, j.Salary, j.JobLevel, pq.Array(j.Skills), j.PostedDate, id); err != nil {
			return 0, fmt.Errorf("upsert job %q: %w", j.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetJobs lists stored jobs, most recently seen first. An empty portal lists all portals.
func (s *Store) GetJobs(ctx context.Context, portal string, limit, offset int) ([]Job, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, portal, title, company, location, summary, url, salary, job_level, skills, posted_date, first_seen_at, last_seen_at
FROM jobs
WHERE $1::text = '' OR portal = $1
ORDER BY last_seen_at DESC, id DESC
LIMIT $2 OFFSET $3
`, portal, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var (
			j      Job
			skills pq.StringArray
		)
		if err := rows.Scan(
			&j.ID,
			&j.Portal,
			&j.Title,
			&j.Company,
			&j.Location,
			&j.Summary,
			&j.URL,
			&j.Salary,
			&j.JobLevel,
			&skills,
			&j.PostedDate,
			&j.FirstSeenAt,
			&j.LastSeenAt,
		); err != nil {
			return nil, err
		}
		j.Skills = []string(skills)
		if j.Skills == nil {
			j.Skills = []string{}
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetSearch loads one recorded run with its per-portal diagnostics.
func (s *Store) GetSearch(ctx context.Context, id int64) (*Search, error) {
	var (
		search  Search
		portals pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, keywords, location, job_type, portals, max_pages, jobs_found, created_at
FROM searches
WHERE id = $1
`, id).Scan(
		&search.ID,
		&search.Name,
		&search.Query.Keywords,
		&search.Query.Location,
		&search.Query.JobType,
		&portals,
		&search.Query.MaxPages,
		&search.JobsFound,
		&search.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	search.Query.Portals = []string(portals)

	rows, err := s.db.QueryContext(ctx, `
SELECT portal, url, status_code, error, jobs_found, pages_scraped, selectors_tried, html_sample
FROM search_diagnostics
WHERE search_id = $1
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	search.Diagnostics = map[string]scraper.Diagnostics{}
	for rows.Next() {
		var (
			portal   string
			d        scraper.Diagnostics
			selector pq.StringArray
		)
		if err := rows.Scan(&portal, &d.URL, &d.StatusCode, &d.Error, &d.JobsFound, &d.PagesScraped, &selector, &d.HTMLSample); err != nil {
			return nil, err
		}
		d.SelectorsTried = []string(selector)
		if d.SelectorsTried == nil {
			d.SelectorsTried = []string{}
		}
		search.Diagnostics[portal] = d
	}
	return &search, rows.Err()
}

// DeleteOldJobs removes jobs not seen by any search within olderThan.
func (s *Store) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `
DELETE FROM jobs
WHERE last_seen_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
