package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MatchAll tries locs in order and returns the matches of the first locator that
// finds anything under root, capped at limit (limit <= 0 means no cap). Results of
// different locators are never merged. trace, when non-nil, receives the
// description of every locator attempted.
func MatchAll(root *goquery.Selection, locs []Locator, limit int, trace func(string)) *goquery.Selection {
	for _, l := range locs {
		if trace != nil {
			trace(l.String())
		}
		found := find(root, l)
		if found.Length() == 0 {
			continue
		}
		if limit > 0 && found.Length() > limit {
			found = found.Slice(0, limit)
		}
		return found
	}
	return root.Slice(0, 0)
}

// MatchFirst returns the first element matched by the first successful locator,
// or an empty selection.
func MatchFirst(root *goquery.Selection, locs ...Locator) *goquery.Selection {
	return MatchAll(root, locs, 1, nil)
}

func find(root *goquery.Selection, l Locator) *goquery.Selection {
	sel := l.Tag
	if sel == "" {
		sel = "*"
	}
	found := root.Find(sel).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return l.Matches(s)
	})
	if len(l.Within) == 0 || found.Length() == 0 {
		return found
	}
	return MatchAll(found.First(), l.Within, 0, nil)
}

// Text returns the whitespace-collapsed text of the first element in s.
func Text(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	var sb strings.Builder
	collectText(&sb, s.Get(0))
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(sb, c)
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func htmlSample(doc *goquery.Document) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	raw, err := goquery.OuterHtml(root.First())
	if err != nil {
		return ""
	}
	return Truncate(raw, sampleLimit)
}
