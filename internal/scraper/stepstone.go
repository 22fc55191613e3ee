package scraper

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/jobportals/internal/urlutil"
)

type StepStone struct {
	BaseURL string
	ext     *Extractor
}

func NewStepStone(ext *Extractor) *StepStone {
	return &StepStone{BaseURL: "https://www.stepstone.de", ext: ext}
}

func (a *StepStone) Name() string { return PortalStepStone }

func (a *StepStone) Policy() Policy { return standardPolicy(40, 0) }

// BuildURL uses the path-based scheme /work/{keywords}-jobs-in-{location}.
// Pages are one-based and the first page carries no page parameter.
func (a *StepStone) BuildURL(q Query, page int) string {
	u := a.BaseURL + "/work/" +
		url.PathEscape(urlutil.Slug(q.Keywords)) + "-jobs-in-" + url.PathEscape(urlutil.Slug(q.Location))
	if page+1 > 1 {
		u += "?page=" + strconv.Itoa(page+1)
	}
	return u
}

func (a *StepStone) Containers(page int) []Locator {
	if page > 0 {
		return []Locator{
			ByAttr("article", "data-at", "job-item"),
			ByStructure("article", false, "h2", "h3"),
		}
	}
	return []Locator{
		ByAttr("article", "data-at", "job-item"),
		ByClass("article", "res-"),
		ByAttr("li", "data-at", "job-item"),
		ByClass("div", "job-element"),
		ByStructure("article", false, "h2", "h3"),
	}
}

var (
	stepstoneTitle = []Locator{
		ByTag("h2"),
		ByTag("h3"),
		ByAttr("a", "data-at", "job-item-title"),
		ByClassSubstr("a", "title"),
	}
	stepstoneCompany = []Locator{
		ByAttr("span", "data-at", "job-item-company-name"),
		ByAttr("a", "data-at", "job-item-company-name"),
		ByClassSubstr("div", "company"),
		ByClassSubstr("span", "company"),
	}
	stepstoneLocation = []Locator{
		ByAttr("span", "data-at", "job-item-location"),
		ByClassSubstr("div", "location"),
		ByClassSubstr("span", "location"),
	}
	stepstoneSalary = []Locator{
		ByAttr("span", "data-at", "job-item-salary"),
		ByClassSubstr("span", "salary"),
	}
	listingDate = []Locator{
		ByClassSubstr("span", "date", "time"),
		ByTag("time"),
	}
)

func (a *StepStone) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	titleEl := MatchFirst(sel, stepstoneTitle...)
	if anchor := titleEl.Find("a").First(); anchor.Length() > 0 {
		titleEl = anchor
	}
	title := Text(titleEl)
	if title == "" {
		return Job{}, false
	}
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, stepstoneCompany...), "Company not listed"),
		location: orDefault(a.ext.Field(sel, stepstoneLocation...), q.Location),
		summary:  "See full details on StepStone",
		url:      a.ext.Link(a.BaseURL, MatchFirst(sel, ByAttrPresent("a", "href"))),
		salary:   a.ext.Field(sel, stepstoneSalary...),
		date:     a.ext.Field(sel, listingDate...),
	}
	return a.ext.Job(PortalStepStone, c, c.title+" "+c.company+" "+c.location), true
}
