package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const indeedRemoteFilter = "032b3046-06a3-4876-8dfd-474eb5e7ed11"

type Indeed struct {
	BaseURL string
	ext     *Extractor
}

func NewIndeed(ext *Extractor) *Indeed {
	return &Indeed{BaseURL: "https://de.indeed.com", ext: ext}
}

func (a *Indeed) Name() string { return PortalIndeed }

func (a *Indeed) Policy() Policy { return standardPolicy(100, 0) }

// BuildURL pages through results ten at a time via start.
func (a *Indeed) BuildURL(q Query, page int) string {
	var b strings.Builder
	b.WriteString(a.BaseURL)
	b.WriteString("/jobs?q=")
	b.WriteString(url.QueryEscape(q.Keywords))
	b.WriteString("&l=")
	b.WriteString(url.QueryEscape(q.Location))
	b.WriteString("&start=")
	b.WriteString(strconv.Itoa(page * 10))
	switch q.JobType {
	case JobTypeFullTime:
		b.WriteString("&jt=fulltime")
	case JobTypePartTime:
		b.WriteString("&jt=parttime")
	case JobTypeRemote:
		b.WriteString("&remotejob=" + indeedRemoteFilter)
	}
	return b.String()
}

func (a *Indeed) Containers(page int) []Locator {
	if page > 0 {
		return []Locator{
			ByClass("div", "job_seen_beacon"),
			ByClass("td", "resultContent"),
		}
	}
	return []Locator{
		ByClass("div", "job_seen_beacon"),
		ByClass("div", "jobsearch-ResultsList").Scoped(
			ByClass("div", "cardOutline"),
			ByTag("li"),
			ByClass("td", "resultContent"),
		),
		ByClass("td", "resultContent"),
		ByClass("div", "cardOutline"),
		ByClass("a", "jcs-JobTitle"),
	}
}

var (
	indeedTitle = []Locator{
		ByClass("h2", "jobTitle"),
		ByTag("h2"),
		ByClass("a", "jcs-JobTitle"),
		ByAttrPresent("span", "title"),
	}
	indeedCompany = []Locator{
		ByAttr("span", "data-testid", "company-name"),
		ByClass("span", "companyName"),
		ByClass("span", "company"),
		ByClass("span", "css-1h7lukg"),
	}
	indeedLocation = []Locator{
		ByAttr("div", "data-testid", "text-location"),
		ByClass("div", "companyLocation"),
		ByClass("div", "location"),
		ByClass("div", "css-1p0sjhy"),
	}
	indeedSummary = []Locator{
		ByClass("div", "job-snippet"),
		ByClass("div", "summary"),
		ByTag("ul"),
		ByClass("div", "jobCardShelfContainer"),
	}
	indeedSalary = []Locator{
		ByClass("span", "salary-snippet"),
		ByClass("div", "salary-snippet"),
		ByAttr("div", "data-testid", "attribute_snippet_testid"),
	}
	indeedDate = []Locator{
		ByAttr("span", "data-testid", "myJobsStateDate"),
		ByClassSubstr("span", "date"),
		ByClass("span", "date"),
	}
)

func (a *Indeed) ParseCard(sel *goquery.Selection, q Query) (Job, bool) {
	titleEl := MatchFirst(sel, indeedTitle...)
	title := Text(titleEl)
	if title == "" {
		return Job{}, false
	}
	summary := a.ext.Field(sel, indeedSummary...)
	c := card{
		title:    title,
		company:  orDefault(a.ext.Field(sel, indeedCompany...), "Company not listed"),
		location: orDefault(a.ext.Field(sel, indeedLocation...), q.Location),
		summary:  orDefault(summary, "No description available"),
		url:      a.link(titleEl),
		salary:   a.ext.Field(sel, indeedSalary...),
		date:     a.ext.Field(sel, indeedDate...),
	}
	return a.ext.Job(PortalIndeed, c, summary), true
}

// link prefers the stable viewjob URL built from the job key over the
// tracking href on the title anchor.
func (a *Indeed) link(titleEl *goquery.Selection) string {
	anchor := titleEl
	if goquery.NodeName(titleEl) != "a" {
		anchor = titleEl.Find("a").First()
	}
	if anchor.Length() == 0 {
		return ""
	}
	key := anchor.AttrOr("data-jk", "")
	if key == "" {
		key = strings.ReplaceAll(anchor.AttrOr("id", ""), "job_", "")
	}
	if key != "" {
		return a.BaseURL + "/viewjob?jk=" + url.QueryEscape(key)
	}
	return a.ext.Link(a.BaseURL, anchor)
}
