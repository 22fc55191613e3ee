package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/jobportals/internal/urlutil"
)

// Adapter is the portal-specific half of a scrape: how to ask a portal for a
// results page and how to read one listing off it. Fetching, pacing and
// stopping are the Driver's job.
type Adapter interface {
	Name() string
	// BuildURL returns the results URL for the zero-based page.
	BuildURL(q Query, page int) string
	// Containers returns the ordered container locators for the zero-based page.
	Containers(page int) []Locator
	// ParseCard extracts one listing. ok is false when the card has no title.
	ParseCard(card *goquery.Selection, q Query) (job Job, ok bool)
	Policy() Policy
}

type Policy struct {
	// MaxPages is the portal's hard page ceiling, applied on top of Query.MaxPages.
	MaxPages int
	// ContainerLimit caps the cards taken per page; 0 means no cap.
	ContainerLimit int
	MinDelay       time.Duration
	MaxDelay       time.Duration
	// EmptyHint, when set, becomes the diagnostics error if the first page has no cards.
	EmptyHint string
}

const (
	defaultMinDelay = 1500 * time.Millisecond
	defaultMaxDelay = 2500 * time.Millisecond
)

func standardPolicy(maxPages, containerLimit int) Policy {
	return Policy{
		MaxPages:       maxPages,
		ContainerLimit: containerLimit,
		MinDelay:       defaultMinDelay,
		MaxDelay:       defaultMaxDelay,
	}
}

// Extractor holds the field normalization shared by every adapter.
type Extractor struct {
	now func() time.Time
}

func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// card is the raw text read off one listing before normalization.
type card struct {
	title    string
	company  string
	location string
	summary  string
	url      string
	salary   string
	date     string
}

// Field returns the text of the first element located by locs inside sel.
func (e *Extractor) Field(sel *goquery.Selection, locs ...Locator) string {
	return Text(MatchFirst(sel, locs...))
}

// Link resolves the href of el against base. Empty when el has no href.
func (e *Extractor) Link(base string, el *goquery.Selection) string {
	if el == nil || el.Length() == 0 {
		return ""
	}
	href, ok := el.Attr("href")
	if !ok {
		return ""
	}
	return urlutil.Absolute(base, href)
}

// Job builds the record for c. signal is the text the level and skills are
// derived from; portals without a real summary pass a composite of other fields.
func (e *Extractor) Job(portal string, c card, signal string) Job {
	posted := ""
	if c.date != "" {
		posted = ParsePostedDate(c.date, e.now())
	}
	return Job{
		Title:      c.title,
		Company:    c.company,
		Location:   c.location,
		Summary:    Truncate(c.summary, summaryLimit),
		URL:        c.url,
		Portal:     portal,
		Salary:     c.salary,
		JobLevel:   ClassifyLevel(c.title, signal),
		Skills:     ExtractSkills(signal),
		PostedDate: posted,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
