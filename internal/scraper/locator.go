package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type LocatorKind int

const (
	// KindTag matches every element with the locator's tag.
	KindTag LocatorKind = iota
	// KindClass matches elements carrying one of Values as a class token.
	KindClass
	// KindClassSubstr matches elements whose class contains any of Values, case-insensitively.
	KindClassSubstr
	// KindClassSubstrAll matches elements whose class contains all of Values, case-insensitively.
	KindClassSubstrAll
	// KindAttr matches elements whose Attr equals Values[0].
	KindAttr
	// KindAttrPresent matches elements that carry Attr at all.
	KindAttrPresent
	// KindAttrSubstr matches elements whose Attr contains any of Values, case-insensitively.
	KindAttrSubstr
	// KindStructure matches elements that contain a link and one of the heading tags in Values.
	// With Attr == "href" the link must carry an href.
	KindStructure
)

// Locator identifies elements by tag plus one predicate. An empty Tag matches any element.
//
// A locator with Within set first takes its own first match as a scope and then
// resolves Within inside that scope.
type Locator struct {
	Kind   LocatorKind
	Tag    string
	Attr   string
	Values []string
	Within []Locator
}

func ByTag(tag string) Locator {
	return Locator{Kind: KindTag, Tag: tag}
}

func ByClass(tag string, classes ...string) Locator {
	return Locator{Kind: KindClass, Tag: tag, Values: classes}
}

func ByClassSubstr(tag string, substrs ...string) Locator {
	return Locator{Kind: KindClassSubstr, Tag: tag, Values: substrs}
}

func ByClassSubstrAll(tag string, substrs ...string) Locator {
	return Locator{Kind: KindClassSubstrAll, Tag: tag, Values: substrs}
}

func ByAttr(tag, attr, value string) Locator {
	return Locator{Kind: KindAttr, Tag: tag, Attr: attr, Values: []string{value}}
}

func ByAttrPresent(tag, attr string) Locator {
	return Locator{Kind: KindAttrPresent, Tag: tag, Attr: attr}
}

func ByAttrSubstr(tag, attr string, substrs ...string) Locator {
	return Locator{Kind: KindAttrSubstr, Tag: tag, Attr: attr, Values: substrs}
}

// ByStructure matches tag elements holding a link and a heading, for markup
// that carries no usable class names.
func ByStructure(tag string, requireHref bool, headings ...string) Locator {
	l := Locator{Kind: KindStructure, Tag: tag, Values: headings}
	if requireHref {
		l.Attr = "href"
	}
	return l
}

// Scoped returns a copy of l that resolves children inside l's first match.
func (l Locator) Scoped(children ...Locator) Locator {
	l.Within = children
	return l
}

// String renders l in a CSS-like notation for the selectors_tried log.
func (l Locator) String() string {
	tag := l.Tag
	if tag == "" {
		tag = "*"
	}
	switch l.Kind {
	case KindClass:
		return tag + "." + strings.Join(l.Values, ".")
	case KindClassSubstr:
		return tag + "[class*=" + strings.Join(l.Values, "|") + "]"
	case KindClassSubstrAll:
		return tag + "[class*=" + strings.Join(l.Values, "&") + "]"
	case KindAttr:
		return tag + "[" + l.Attr + "=" + strings.Join(l.Values, "") + "]"
	case KindAttrPresent:
		return tag + "[" + l.Attr + "]"
	case KindAttrSubstr:
		return tag + "[" + l.Attr + "*=" + strings.Join(l.Values, "|") + "]"
	case KindStructure:
		link := "a"
		if l.Attr == "href" {
			link = "a[href]"
		}
		return tag + ":has(" + link + "):has(" + strings.Join(l.Values, "|") + ")"
	default:
		return tag
	}
}

// Matches reports whether the single element s satisfies l (Within is ignored).
func (l Locator) Matches(s *goquery.Selection) bool {
	if l.Tag != "" && goquery.NodeName(s) != l.Tag {
		return false
	}
	switch l.Kind {
	case KindTag:
		return true
	case KindClass:
		for _, c := range l.Values {
			if s.HasClass(c) {
				return true
			}
		}
		return false
	case KindClassSubstr:
		class, ok := s.Attr("class")
		return ok && classContains(class, l.Values, false)
	case KindClassSubstrAll:
		class, ok := s.Attr("class")
		return ok && classContains(class, l.Values, true)
	case KindAttr:
		v, ok := s.Attr(l.Attr)
		return ok && len(l.Values) > 0 && v == l.Values[0]
	case KindAttrPresent:
		_, ok := s.Attr(l.Attr)
		return ok
	case KindAttrSubstr:
		v, ok := s.Attr(l.Attr)
		return ok && containsAny(strings.ToLower(v), l.Values)
	case KindStructure:
		link := "a"
		if l.Attr == "href" {
			link = "a[href]"
		}
		return s.Find(link).Length() > 0 && s.Find(strings.Join(l.Values, ",")).Length() > 0
	}
	return false
}

// classContains tests each class token and the whole attribute value, so
// "job card" satisfies an all-of {"job", "card"} test like "job-card" does.
func classContains(class string, values []string, all bool) bool {
	class = strings.ToLower(class)
	candidates := append(strings.Fields(class), class)
	for _, c := range candidates {
		if all && containsAll(c, values) {
			return true
		}
		if !all && containsAny(c, values) {
			return true
		}
	}
	return false
}

func containsAny(s string, values []string) bool {
	for _, v := range values {
		if strings.Contains(s, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func containsAll(s string, values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !strings.Contains(s, strings.ToLower(v)) {
			return false
		}
	}
	return true
}
