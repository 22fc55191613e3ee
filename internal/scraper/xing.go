package scraper

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

type Xing struct {
	BaseURL string
	ext     *Extractor
}

func NewXing(ext *Extractor) *Xing {
	return &Xing{BaseURL: "https://www.xing.com", ext: ext}
}

func (a *Xing) Name() string { return PortalXing }

func (a *Xing) Policy() Policy { return standardPolicy(40, 0) }

func (a *Xing) BuildURL(q Query, page int) string {
	return a.BaseURL + "/jobs/search?keywords=" + url.QueryEscape(q.Keywords) +
		"&location=" + url.QueryEscape(q.Location) +
		"&page=" + strconv.Itoa(page+1)
}

func (a *Xing) Containers(page int) []Locator {
	if page > 0 {
		return []Locator{
			ByAttr("div", "data-xds", "JobTeaser"),
			ByClass("article", "job"),
		}
	}
	return []Locator{
		ByAttr("div", "data-xds", "JobTeaser"),
		ByClass("article", "job"),
		ByClass("div", "job-card"),
		ByClass("li", "job-posting"),
		ByClassSubstr("a", "job"),
		ByStructure("div", true, "h2", "h3", "h4"),
	}
}

var (
	xingTitle = []Locator{
		ByTag("h2"),
		ByTag("h3"),
		ByTag("h4"),
		ByClassSubstr("a", "title"),
		ByAttrPresent("a", "href"),
	}
	xingCompany = []Locator{
		ByClassSubstr("span", "company"),
		ByClassSubstr("div", "company"),
		ByClassSubstr("a", "company"),
	}
)

func (a *Xing) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	titleEl := MatchFirst(sel, xingTitle...)
	var title, link string
	switch {
	case titleEl.Length() == 0:
	case goquery.NodeName(titleEl) == "a":
		title = Text(titleEl)
		link = a.ext.Link(a.BaseURL, titleEl)
	default:
		if anchor := titleEl.Find("a").First(); anchor.Length() > 0 {
			title = Text(anchor)
			link = a.ext.Link(a.BaseURL, anchor)
		} else {
			title = Text(titleEl)
			link = a.ext.Link(a.BaseURL, MatchFirst(sel, ByAttrPresent("a", "href")))
		}
	}
	if title == "" {
		return Job{}, false
	}
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, xingCompany...), "See on XING"),
		location: q.Location,
		summary:  "Full details available on XING",
		url:      link,
		salary:   a.ext.Field(sel, ByClassSubstr("span", "salary")),
		date:     a.ext.Field(sel, listingDate...),
	}
	return a.ext.Job(PortalXing, c, c.title+" "+c.company), true
}
