package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/baxromumarov/jobportals/internal/urlutil"
)

// DefaultTimeout bounds every portal request.
const DefaultTimeout = 15 * time.Second

// BrowserUserAgent is the desktop Chrome identity the portals are queried with.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserHeaders returns the fixed header set sent with every portal request.
// German is preferred because several portals localize (or refuse) otherwise.
// Brotli is not advertised: colly only decodes gzip bodies.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", BrowserUserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Accept-Encoding", "gzip")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// Page is the outcome of one successful GET.
type Page struct {
	URL    string
	Status int
	Body   []byte
}

// CollyFetcher performs single-shot HTML GETs through Colly. It never retries:
// a failed page is reported to the caller as a *FetchError.
type CollyFetcher struct {
	userAgent     string
	timeout       time.Duration
	respectRobots bool
	mu            sync.Mutex
	defaultRate   rate.Limit
	defaultBurst  int
	hosts         map[string]*rate.Limiter
}

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewCollyFetcher(userAgent string) *CollyFetcher {
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	return &CollyFetcher{
		userAgent:    userAgent,
		timeout:      DefaultTimeout,
		defaultRate:  rate.Every(time.Second),
		defaultBurst: 2,
		hosts:        make(map[string]*rate.Limiter),
	}
}

// SetRespectRobots makes the fetcher refuse URLs disallowed by the host's robots.txt.
// Off by default: honoring portal terms is left to whoever deploys the scraper.
func (f *CollyFetcher) SetRespectRobots(on bool) {
	f.respectRobots = on
}

// SetTimeout overrides DefaultTimeout.
func (f *CollyFetcher) SetTimeout(d time.Duration) {
	if d > 0 {
		f.timeout = d
	}
}

// SetDefaultLimit changes the pacing applied to hosts without an explicit limit.
// Hosts already seen keep their limiter.
func (f *CollyFetcher) SetDefaultLimit(per time.Duration, burst int) {
	if per <= 0 || burst <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultRate = rate.Every(per)
	f.defaultBurst = burst
}

// SetHostLimit installs a pacing floor for one host, given as a bare host or a URL.
// Portal pagination already sleeps between pages; the limiter only matters when
// several searches hit the same host at once.
func (f *CollyFetcher) SetHostLimit(host string, per time.Duration, burst int) {
	key := hostKey(host)
	if key == "" || per <= 0 || burst <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[key] = rate.NewLimiter(rate.Every(per), burst)
}

// Get fetches rawURL once. Non-2xx statuses, timeouts and connection failures
// are returned as *FetchError; the returned Page still carries the URL and status.
func (f *CollyFetcher) Get(ctx context.Context, rawURL string) (Page, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return Page{URL: rawURL}, &FetchError{Err: err}
	}
	if err := f.limiterFor(hostKey(target)).Wait(ctx); err != nil {
		return Page{URL: target}, &FetchError{Err: err}
	}
	return f.fetchOnce(ctx, target)
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string) (Page, error) {
	c := f.newCollector(ctx)

	page := Page{URL: target}
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		page.Status = r.StatusCode
		page.Body = append([]byte(nil), r.Body...)
		if r.Request != nil && r.Request.URL != nil {
			page.URL = r.Request.URL.String()
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			page.Status = r.StatusCode
			if r.Request != nil && r.Request.URL != nil {
				page.URL = r.Request.URL.String()
			}
		}
		reqErr = err
	})

	if err := c.Request(http.MethodGet, target, nil, nil, BrowserHeaders()); err != nil {
		return page, &FetchError{Status: page.Status, Err: err}
	}
	if reqErr != nil {
		return page, &FetchError{Status: page.Status, Err: reqErr}
	}
	if ctx.Err() != nil {
		return page, &FetchError{Status: page.Status, Err: ctx.Err()}
	}
	if page.Status == 0 {
		page.Status = http.StatusOK
	}
	if page.Status < 200 || page.Status > 299 {
		return page, &FetchError{Status: page.Status, Err: fmt.Errorf("status %d", page.Status)}
	}
	return page, nil
}

// newCollector binds the collector to ctx, so cancelling ctx also aborts a request in flight.
func (f *CollyFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.userAgent), colly.StdlibContext(ctx))
	c.IgnoreRobotsTxt = !f.respectRobots
	c.DetectCharset = true
	c.SetRequestTimeout(f.timeout)
	return c
}

func (f *CollyFetcher) limiterFor(host string) *rate.Limiter {
	if host == "" {
		host = "default"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.defaultRate, f.defaultBurst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

// hostKey accepts a URL or a bare host name.
func hostKey(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return urlutil.Host(raw)
}
