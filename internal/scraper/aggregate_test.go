package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/jobportals/internal/httpx"
	"github.com/baxromumarov/jobportals/internal/observability"
)

type namedStub struct {
	stubAdapter
	name string
}

func (n namedStub) Name() string { return n.name }

func (n namedStub) BuildURL(_ Query, page int) string {
	return fmt.Sprintf("https://%s.test/jobs?page=%d", strings.ToLower(n.name), page)
}

type panickingAdapter struct {
	namedStub
}

func (p panickingAdapter) BuildURL(Query, int) string {
	panic("nil map write")
}

func newNamedStub(name string) namedStub {
	return namedStub{stubAdapter: stubAdapter{policy: stubPolicy(100)}, name: name}
}

func TestAggregatorUnreachableAndReachablePortal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, xingFixture)
	}))
	defer srv.Close()

	fetcher := httpx.NewCollyFetcher("")
	fetcher.SetHostLimit("127.0.0.1", time.Millisecond, 100)
	fetcher.SetTimeout(2 * time.Second)

	ext := fixedExtractor()
	xing := NewXing(ext)
	xing.BaseURL = srv.URL
	monster := NewMonster(ext)
	monster.BaseURL = "http://127.0.0.1:1"

	agg := NewAggregator(newTestDriver(fetcher, nil), quietLogger(), xing, monster)
	sink := observability.NewStats()
	jobs, diags, err := agg.Search(context.Background(), Query{
		Keywords: "backend",
		Location: "Berlin",
		Portals:  []string{PortalMonster, PortalXing},
		MaxPages: 2,
	}, sink)
	require.NoError(t, err)

	require.Contains(t, diags, PortalMonster)
	require.Contains(t, diags, PortalXing)

	assert.True(t, strings.HasPrefix(diags[PortalMonster].Error, "Network error: "), diags[PortalMonster].Error)
	assert.Equal(t, 0, diags[PortalMonster].JobsFound)
	assert.Equal(t, 0, diags[PortalMonster].StatusCode)

	assert.Empty(t, diags[PortalXing].Error)
	assert.Equal(t, http.StatusOK, diags[PortalXing].StatusCode)
	assert.Equal(t, 1, diags[PortalXing].PagesScraped, "page 2 repeats page 1 and adds nothing")

	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		assert.Equal(t, PortalXing, j.Portal)
	}
	assert.Equal(t, "https://www.xing.com/jobs/hamburg-lead-ds-99", jobs[1].URL)
	assert.Equal(t, uint64(1), sink.Snapshot().ErrorsByComponent[PortalMonster])
}

func TestAggregatorRejectsInvalidQuery(t *testing.T) {
	var events []string
	f := &fakeFetcher{events: &events}
	agg := NewAggregator(newTestDriver(f, nil), quietLogger(), newNamedStub("A"))
	valid := Query{Keywords: "go", Location: "Berlin", Portals: []string{"A"}, MaxPages: 1}

	tests := []struct {
		name   string
		mutate func(q *Query)
	}{
		{"empty keywords", func(q *Query) { q.Keywords = "  " }},
		{"empty location", func(q *Query) { q.Location = "" }},
		{"unknown job type", func(q *Query) { q.JobType = "Freelance" }},
		{"zero pages", func(q *Query) { q.MaxPages = 0 }},
		{"too many pages", func(q *Query) { q.MaxPages = 101 }},
		{"no portals", func(q *Query) { q.Portals = nil }},
		{"unknown portal", func(q *Query) { q.Portals = []string{"A", "Nope"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			jobs, diags, err := agg.Search(context.Background(), q, nil)
			assert.True(t, errors.Is(err, ErrInvalidQuery), "got %v", err)
			assert.Nil(t, jobs)
			assert.Nil(t, diags)
		})
	}
	assert.Empty(t, events, "no request may be sent for an invalid query")
}

func TestAggregatorContainsPanickingPortal(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://ok.test/jobs?page=0": cardsPage("A@X"),
	}}
	broken := panickingAdapter{newNamedStub("Broken")}
	agg := NewAggregator(newTestDriver(f, nil), quietLogger(), broken, newNamedStub("OK"))

	jobs, diags, err := agg.Search(context.Background(), Query{
		Keywords: "go", Location: "Berlin", Portals: []string{"Broken", "OK"}, MaxPages: 1,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Unexpected error: nil map write", diags["Broken"].Error)
	assert.Equal(t, 0, diags["Broken"].JobsFound)
	assert.Empty(t, diags["OK"].Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, "A", jobs[0].Title)
}

func TestAggregatorOrder(t *testing.T) {
	pages := map[string]string{}
	for _, name := range []string{"a", "b", "c"} {
		pages[fmt.Sprintf("https://%s.test/jobs?page=0", name)] = cardsPage(name+"1@X", name+"2@X")
		pages[fmt.Sprintf("https://%s.test/jobs?page=1", name)] = cardsPage(name+"3@X")
	}

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			f := &fakeFetcher{pages: pages}
			agg := NewAggregator(newTestDriver(f, nil), quietLogger(), newNamedStub("A"), newNamedStub("B"), newNamedStub("C"))
			agg.Parallel = parallel

			jobs, diags, err := agg.Search(context.Background(), Query{
				Keywords: "go", Location: "Berlin", Portals: []string{"C", "A", "C"}, MaxPages: 2,
			}, observability.NewStats())
			require.NoError(t, err)

			var titles []string
			for _, j := range jobs {
				titles = append(titles, j.Title)
			}
			assert.Equal(t, []string{"c1", "c2", "c3", "a1", "a2", "a3"}, titles)
			assert.Len(t, diags, 2)
			assert.Equal(t, 2, diags["C"].PagesScraped)
		})
	}
}

func TestAggregatorPortals(t *testing.T) {
	agg := New(httpx.NewCollyFetcher(""), quietLogger())
	assert.Equal(t, []string{
		PortalIndeed, PortalStepStone, PortalXing, PortalMonster, PortalArbeitsagentur, PortalLinkedIn,
	}, agg.Portals())
	for _, p := range DefaultPortals {
		assert.Contains(t, agg.Portals(), p)
	}
	assert.NotContains(t, DefaultPortals, PortalLinkedIn)
}

func TestQueryWithDefaults(t *testing.T) {
	q := Query{Keywords: "go", Location: "Berlin"}.WithDefaults(5)
	assert.Equal(t, DefaultPortals, q.Portals)
	assert.Equal(t, 5, q.MaxPages)

	q = Query{Portals: []string{PortalLinkedIn}, MaxPages: 2}.WithDefaults(5)
	assert.Equal(t, []string{PortalLinkedIn}, q.Portals)
	assert.Equal(t, 2, q.MaxPages)
}
