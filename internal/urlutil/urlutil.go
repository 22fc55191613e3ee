package urlutil

import (
	"net/url"
	"strings"
)

// Absolute resolves href against base the way a browser would. Links that do not
// point to a page (mailto:, tel:, javascript:, fragments) resolve to "".
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ""
	}
	u = b.ResolveReference(u)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

// Host returns the lower-cased host of raw without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

// Slug lower-cases s and joins its whitespace-separated words with hyphens,
// as used by path-based search URLs ("Software Engineer" -> "software-engineer").
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
