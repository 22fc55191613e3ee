package scraper

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Portal names as reported in Job.Portal and as keys of the diagnostics map.
const (
	PortalIndeed         = "Indeed.de"
	PortalStepStone      = "StepStone.de"
	PortalXing           = "XING Jobs"
	PortalMonster        = "Monster.de"
	PortalArbeitsagentur = "Arbeitsagentur.de"
	PortalLinkedIn       = "LinkedIn"
)

// Job types accepted in Query.JobType. The empty string means "any".
const (
	JobTypeAny        = ""
	JobTypeFullTime   = "Full-time"
	JobTypePartTime   = "Part-time"
	JobTypeRemote     = "Remote"
	JobTypeContract   = "Contract"
	JobTypeInternship = "Internship"
)

// Job levels produced by ClassifyLevel.
const (
	LevelEntry        = "Entry Level"
	LevelMid          = "Mid Level"
	LevelSenior       = "Senior Level"
	LevelManagement   = "Management"
	LevelNotSpecified = "Not Specified"
)

const (
	MinPages = 1
	MaxPages = 100

	summaryLimit = 300
	sampleLimit  = 1000
)

var ErrInvalidQuery = errors.New("invalid query")

// Job is one listing found on a portal results page.
type Job struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Location   string   `json:"location"`
	Summary    string   `json:"summary"`
	URL        string   `json:"url"`
	Portal     string   `json:"portal"`
	Salary     string   `json:"salary,omitempty"`
	JobLevel   string   `json:"job_level"`
	Skills     []string `json:"skills"`
	PostedDate string   `json:"posted_date,omitempty"`
}

// Diagnostics is the per-portal telemetry of one search run.
type Diagnostics struct {
	URL            string   `json:"url"`
	StatusCode     int      `json:"status_code"`
	Error          string   `json:"error"`
	JobsFound      int      `json:"jobs_found"`
	PagesScraped   int      `json:"pages_scraped"`
	SelectorsTried []string `json:"selectors_tried"`
	HTMLSample     string   `json:"html_sample"`
}

// Failed reports whether the portal broke while scraping, as opposed to
// running cleanly and matching nothing.
func (d Diagnostics) Failed() bool {
	return d.Error != ""
}

type Query struct {
	Keywords string   `json:"keywords"`
	Location string   `json:"location"`
	JobType  string   `json:"job_type"`
	Portals  []string `json:"portals"`
	MaxPages int      `json:"max_pages"`
}

// Validate rejects queries the aggregator refuses to run. known lists the
// portal names that may appear in q.Portals.
func (q Query) Validate(known []string) error {
	if strings.TrimSpace(q.Keywords) == "" {
		return fmt.Errorf("%w: keywords are required", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidQuery)
	}
	if !ValidJobType(q.JobType) {
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidQuery, q.JobType)
	}
	if q.MaxPages < MinPages || q.MaxPages > MaxPages {
		return fmt.Errorf("%w: max_pages must be within [%d, %d], got %d", ErrInvalidQuery, MinPages, MaxPages, q.MaxPages)
	}
	if len(q.Portals) == 0 {
		return fmt.Errorf("%w: at least one portal is required", ErrInvalidQuery)
	}
	for _, p := range q.Portals {
		if !slices.Contains(known, p) {
			return fmt.Errorf("%w: unknown portal %q", ErrInvalidQuery, p)
		}
	}
	return nil
}

func ValidJobType(t string) bool {
	switch t {
	case JobTypeAny, JobTypeFullTime, JobTypePartTime, JobTypeRemote, JobTypeContract, JobTypeInternship:
		return true
	}
	return false
}
