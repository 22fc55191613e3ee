package scraper

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

type Monster struct {
	BaseURL string
	ext     *Extractor
}

func NewMonster(ext *Extractor) *Monster {
	return &Monster{BaseURL: "https://www.monster.de", ext: ext}
}

func (a *Monster) Name() string { return PortalMonster }

func (a *Monster) Policy() Policy { return standardPolicy(100, 50) }

func (a *Monster) BuildURL(q Query, page int) string {
	u := a.BaseURL + "/jobs/suche?q=" + url.QueryEscape(q.Keywords) + "&where=" + url.QueryEscape(q.Location)
	if page > 0 {
		u += "&page=" + strconv.Itoa(page+1)
	}
	return u
}

func (a *Monster) Containers(page int) []Locator {
	locs := []Locator{
		ByClassSubstr("div", "job-card"),
		ByAttr("div", "data-test-id", "svx-job-card"),
		ByClassSubstr("article", "job"),
		ByClass("div", "card"),
		ByClassSubstr("section", "card"),
	}
	if page > 0 {
		return locs[:2]
	}
	return locs
}

var (
	monsterTitle = []Locator{
		ByTag("h2"),
		ByTag("h3"),
		ByAttr("a", "data-test-id", "svx-job-title"),
		ByClassSubstr("a", "title"),
	}
	monsterCompany = []Locator{
		ByAttr("div", "data-test-id", "svx-job-company"),
		ByClassSubstr("span", "company"),
		ByClassSubstr("div", "company"),
	}
	monsterLocation = []Locator{
		ByAttr("div", "data-test-id", "svx-job-location"),
		ByClassSubstr("span", "location"),
		ByClassSubstr("div", "location"),
	}
	monsterSummary = []Locator{
		ByClassSubstr("div", "description"),
		ByTag("p"),
		ByClassSubstr("div", "summary"),
	}
	monsterSalary = []Locator{
		ByClassSubstr("span", "salary"),
		ByClassSubstr("div", "salary"),
	}
	cardDate = []Locator{
		ByClassSubstr("span", "date", "time"),
		ByClassSubstr("div", "date", "time"),
		ByTag("time"),
	}
)

func (a *Monster) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	titleEl := MatchFirst(sel, monsterTitle...)
	title := Text(titleEl)
	if title == "" {
		return Job{}, false
	}
	summary := a.ext.Field(sel, monsterSummary...)
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, monsterCompany...), "Company not specified"),
		location: orDefault(a.ext.Field(sel, monsterLocation...), q.Location),
		summary:  summary,
		url:      a.ext.Link(a.BaseURL, titleLink(sel, titleEl)),
		salary:   a.ext.Field(sel, monsterSalary...),
		date:     a.ext.Field(sel, cardDate...),
	}
	return a.ext.Job(PortalMonster, c, summary), true
}

// titleLink is the title element itself when it is an anchor, else the card's first anchor.
func titleLink(sel, titleEl *goquery.Selection) *goquery.Selection {
	if goquery.NodeName(titleEl) == "a" {
		return titleEl
	}
	return sel.Find("a").First()
}
