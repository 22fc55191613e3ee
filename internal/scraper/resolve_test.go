package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestLocatorMatches(t *testing.T) {
	doc := parseHTML(t, `<body>
		<div id="a" class="job_seen_beacon extra"></div>
		<div id="b" class="Search-JOB-Card"></div>
		<div id="c" class="job card"></div>
		<article id="d" data-at="job-item"></article>
		<span id="e" title="x"></span>
		<div id="f" data-test="JobList-item"></div>
		<article id="g"><a href="/x">x</a><h3>t</h3></article>
		<article id="h"><a>x</a><h3>t</h3></article>
	</body>`)
	el := func(id string) *goquery.Selection { return doc.Find("#" + id) }

	tests := []struct {
		name string
		loc  Locator
		id   string
		want bool
	}{
		{"exact class", ByClass("div", "job_seen_beacon"), "a", true},
		{"exact class is not substring", ByClass("div", "job_seen"), "a", false},
		{"wrong tag", ByClass("span", "job_seen_beacon"), "a", false},
		{"class substring case-insensitive", ByClassSubstr("div", "job-card"), "b", true},
		{"class substring any", ByClassSubstr("div", "nope", "card"), "b", true},
		{"class all in one token", ByClassSubstrAll("div", "job", "card"), "b", true},
		{"class all across tokens", ByClassSubstrAll("div", "job", "card"), "c", true},
		{"class all missing one", ByClassSubstrAll("div", "job", "result"), "b", false},
		{"no class attribute", ByClassSubstr("article", "job"), "d", false},
		{"attr equals", ByAttr("article", "data-at", "job-item"), "d", true},
		{"attr equals exact only", ByAttr("article", "data-at", "job"), "d", false},
		{"attr present", ByAttrPresent("span", "title"), "e", true},
		{"attr substring", ByAttrSubstr("div", "data-test", "job"), "f", true},
		{"structure with href", ByStructure("article", true, "h2", "h3"), "g", true},
		{"structure needs href", ByStructure("article", true, "h2", "h3"), "h", false},
		{"structure any link", ByStructure("article", false, "h3"), "h", true},
		{"tag only", ByTag("article"), "h", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Matches(el(tt.id)))
		})
	}
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "div.job_seen_beacon", ByClass("div", "job_seen_beacon").String())
	assert.Equal(t, "article[data-at=job-item]", ByAttr("article", "data-at", "job-item").String())
	assert.Equal(t, "div[class*=job-card]", ByClassSubstr("div", "job-card").String())
	assert.Equal(t, "div[class*=job&card]", ByClassSubstrAll("div", "job", "card").String())
	assert.Equal(t, "span[title]", ByAttrPresent("span", "title").String())
	assert.Equal(t, "div[data-test*=job]", ByAttrSubstr("div", "data-test", "job").String())
	assert.Equal(t, "div:has(a[href]):has(h2|h3|h4)", ByStructure("div", true, "h2", "h3", "h4").String())
	assert.Equal(t, "article", ByTag("article").String())
	assert.Equal(t, "*[data-x]", ByAttrPresent("", "data-x").String())
}

func TestMatchAllCommitsToFirstSuccessfulLocator(t *testing.T) {
	doc := parseHTML(t, `<body>
		<article class="res-1">one</article>
		<div class="job-element">two</div>
		<div class="job-element">three</div>
	</body>`)

	var tried []string
	found := MatchAll(doc.Selection, []Locator{
		ByAttr("article", "data-at", "job-item"),
		ByClass("div", "job-element"),
		ByTag("article"),
	}, 0, func(s string) { tried = append(tried, s) })

	assert.Equal(t, 2, found.Length())
	assert.Equal(t, []string{"article[data-at=job-item]", "div.job-element"}, tried)
}

func TestMatchAllLimitAndEmpty(t *testing.T) {
	doc := parseHTML(t, `<ul><li class="r">1</li><li class="r">2</li><li class="r">3</li></ul>`)

	found := MatchAll(doc.Selection, []Locator{ByClass("li", "r")}, 2, nil)
	assert.Equal(t, 2, found.Length())

	none := MatchAll(doc.Selection, []Locator{ByClass("li", "missing")}, 0, nil)
	assert.Equal(t, 0, none.Length())
	assert.Equal(t, "", Text(none))
}

func TestMatchAllScoped(t *testing.T) {
	doc := parseHTML(t, `<body>
		<li>outside</li>
		<div class="jobsearch-ResultsList">
			<li>first</li>
			<li>second</li>
		</div>
	</body>`)

	loc := ByClass("div", "jobsearch-ResultsList").Scoped(
		ByClass("div", "cardOutline"),
		ByTag("li"),
	)
	found := MatchAll(doc.Selection, []Locator{loc}, 0, nil)

	require.Equal(t, 2, found.Length())
	assert.Equal(t, "first", Text(found.First()))
	assert.Equal(t, "div.jobsearch-ResultsList", loc.String())
}

func TestMatchAllScopedWithoutChildrenFallsThrough(t *testing.T) {
	doc := parseHTML(t, `<body><div class="jobsearch-ResultsList"></div><table><tr><td class="resultContent">x</td></tr></table></body>`)

	found := MatchAll(doc.Selection, []Locator{
		ByClass("div", "jobsearch-ResultsList").Scoped(ByTag("li")),
		ByClass("td", "resultContent"),
	}, 0, nil)
	assert.Equal(t, 1, found.Length())
}

func TestMatchFirst(t *testing.T) {
	doc := parseHTML(t, `<div><h3>Third</h3><h2>Second</h2><h2>Other</h2></div>`)

	assert.Equal(t, "Second", Text(MatchFirst(doc.Selection, ByTag("h2"), ByTag("h3"))))
	assert.Equal(t, "Third", Text(MatchFirst(doc.Selection, ByTag("h4"), ByTag("h3"))))
	assert.Equal(t, 0, MatchFirst(doc.Selection, ByTag("h5")).Length())
}

func TestTextCollapsesWhitespaceAndSkipsScripts(t *testing.T) {
	doc := parseHTML(t, "<p>  Senior \n\t <b>Go</b>   Engineer<script>var x = 1;</script> </p>")
	assert.Equal(t, "Senior Go Engineer", Text(doc.Find("p")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Grü", Truncate("Grüße", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}
