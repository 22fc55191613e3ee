package scraper

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Arbeitsagentur scrapes the job board of the Bundesagentur für Arbeit.
type Arbeitsagentur struct {
	BaseURL string
	ext     *Extractor
}

func NewArbeitsagentur(ext *Extractor) *Arbeitsagentur {
	return &Arbeitsagentur{BaseURL: "https://www.arbeitsagentur.de", ext: ext}
}

func (a *Arbeitsagentur) Name() string { return PortalArbeitsagentur }

func (a *Arbeitsagentur) Policy() Policy { return standardPolicy(100, 50) }

// BuildURL uses was/wo parameters; the page parameter is zero-based and omitted on the first page.
func (a *Arbeitsagentur) BuildURL(q Query, page int) string {
	u := a.BaseURL + "/jobsuche?was=" + url.QueryEscape(q.Keywords) + "&wo=" + url.QueryEscape(q.Location)
	if page > 0 {
		u += "&page=" + strconv.Itoa(page)
	}
	return u
}

func (a *Arbeitsagentur) Containers(page int) []Locator {
	locs := []Locator{
		ByClassSubstrAll("div", "job", "card"),
		ByClassSubstr("article", "job"),
		ByAttrSubstr("div", "data-test", "job"),
		ByClassSubstr("li", "result"),
		ByClass("div", "result-item"),
	}
	if page > 0 {
		return locs[:2]
	}
	return locs
}

var (
	arbeitsagenturTitle = []Locator{
		ByTag("h3"),
		ByTag("h2"),
		ByClassSubstr("a", "title"),
		ByClassSubstr("span", "title"),
	}
	arbeitsagenturCompany = []Locator{
		ByClassSubstr("span", "company"),
		ByClassSubstr("div", "company"),
		ByClassSubstr("p", "company"),
	}
	arbeitsagenturLocation = []Locator{
		ByClassSubstr("span", "location", "ort"),
		ByClassSubstr("div", "location", "ort"),
	}
	arbeitsagenturSummary = []Locator{
		ByClassSubstr("div", "description"),
		ByClassSubstr("p", "text", "beschreibung"),
		ByTag("p"),
	}
	arbeitsagenturSalary = []Locator{
		ByClassSubstr("span", "salary", "gehalt"),
		ByClassSubstr("div", "salary", "gehalt"),
	}
)

func (a *Arbeitsagentur) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	titleEl := MatchFirst(sel, arbeitsagenturTitle...)
	title := Text(titleEl)
	if title == "" {
		return Job{}, false
	}
	summary := a.ext.Field(sel, arbeitsagenturSummary...)
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, arbeitsagenturCompany...), "Company not specified"),
		location: orDefault(a.ext.Field(sel, arbeitsagenturLocation...), q.Location),
		summary:  summary,
		url:      a.ext.Link(a.BaseURL, titleLink(sel, titleEl)),
		salary:   a.ext.Field(sel, arbeitsagenturSalary...),
		date:     a.ext.Field(sel, cardDate...),
	}
	return a.ext.Job(PortalArbeitsagentur, c, summary), true
}
