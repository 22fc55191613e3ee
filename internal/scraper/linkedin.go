package scraper

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const linkedInBlockedHint = "LinkedIn may be blocking automated access. Consider using LinkedIn API or reducing request frequency."

// LinkedIn scrapes the public guest job search. It is never part of the
// default portal set: the site actively blocks automated access.
type LinkedIn struct {
	BaseURL string
	ext     *Extractor
}

func NewLinkedIn(ext *Extractor) *LinkedIn {
	return &LinkedIn{BaseURL: "https://www.linkedin.com", ext: ext}
}

func (a *LinkedIn) Name() string { return PortalLinkedIn }

func (a *LinkedIn) Policy() Policy {
	return Policy{
		MaxPages:       100,
		ContainerLimit: 50,
		MinDelay:       2500 * time.Millisecond,
		MaxDelay:       4 * time.Second,
		EmptyHint:      linkedInBlockedHint,
	}
}

// BuildURL pages through results 25 at a time via start. Spaces are sent as %20.
func (a *LinkedIn) BuildURL(q Query, page int) string {
	return a.BaseURL + "/jobs/search?keywords=" + pathQueryEscape(q.Keywords) +
		"&location=" + pathQueryEscape(q.Location) +
		"&start=" + strconv.Itoa(page*25)
}

func pathQueryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (a *LinkedIn) Containers(page int) []Locator {
	locs := []Locator{
		ByClassSubstr("li", "job"),
		ByClassSubstr("div", "job-search-card"),
		ByAttrSubstr("div", "data-entity-urn", "job"),
		ByClassSubstr("article", "job"),
	}
	if page > 0 {
		return locs[:2]
	}
	return locs
}

var (
	linkedInTitle = []Locator{
		ByClassSubstr("h3", "job"),
		ByTag("h3"),
		ByClassSubstr("a", "job-title"),
	}
	linkedInCompany = []Locator{
		ByClassSubstr("h4", "company"),
		ByClassSubstr("a", "company"),
		ByClassSubstr("span", "company"),
	}
	linkedInLocation = []Locator{
		ByClassSubstr("span", "location"),
		ByClassSubstr("div", "location"),
	}
	linkedInSummary = []Locator{
		ByTag("p"),
		ByClassSubstr("div", "description"),
	}
	linkedInLink = []Locator{
		ByClassSubstr("a", "job"),
		ByTag("a"),
	}
	linkedInDate = []Locator{
		ByClassSubstr("time", "listdate"),
		ByTag("time"),
	}
)

func (a *LinkedIn) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	title := a.ext.Field(sel, linkedInTitle...)
	if title == "" {
		return Job{}, false
	}
	summary := a.ext.Field(sel, linkedInSummary...)
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, linkedInCompany...), "Company not specified"),
		location: orDefault(a.ext.Field(sel, linkedInLocation...), q.Location),
		summary:  summary,
		url:      a.ext.Link(a.BaseURL, MatchFirst(sel, linkedInLink...)),
		salary:   a.ext.Field(sel, ByClassSubstr("span", "salary")),
		date:     a.ext.Field(sel, linkedInDate...),
	}
	return a.ext.Job(PortalLinkedIn, c, summary), true
}
