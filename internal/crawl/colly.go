package crawl

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	colly "github.com/gocolly/colly/v2"

	"github.com/anchorlint/anchorlint/internal/config"
)

// HTTP transport settings shared by every run.
const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
)

// pageTitleCtxKey is the request context key the title callback stores the
// page title under.
const pageTitleCtxKey = "page_title"

// CollyEngine is the production Engine, built on gocolly's asynchronous
// collector. One engine serves one crawl run; the collector is created inside
// Run so the run context can be attached to it.
type CollyEngine struct {
	site   config.SiteConfig
	logger *slog.Logger

	cond FetchCondition
	disc Discoverer

	dispatch func(Event)

	mu        sync.Mutex
	collector *colly.Collector
	seeds     []string
	pending   map[string]struct{}
}

// NewCollyEngine creates an engine configured from the site's engine block.
func NewCollyEngine(site config.SiteConfig, logger *slog.Logger) *CollyEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollyEngine{
		site:    site,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// SetFetchCondition installs the URL filter.
func (e *CollyEngine) SetFetchCondition(cond FetchCondition) {
	e.cond = cond
}

// SetDiscoverer installs the link extractor.
func (e *CollyEngine) SetDiscoverer(d Discoverer) {
	e.disc = d
}

// Enqueue adds a URL to the fetch queue. Before Run the URL is held as a
// seed; during the run it is visited immediately.
func (e *CollyEngine) Enqueue(rawURL string) {
	e.mu.Lock()
	started := e.collector != nil
	if !started {
		e.seeds = append(e.seeds, rawURL)
	}
	e.mu.Unlock()

	if started {
		e.visit(rawURL, nil)
	}
}

// Spooled returns a sorted snapshot of the URLs awaiting a fetch outcome.
func (e *CollyEngine) Spooled() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	urls := make([]string, 0, len(e.pending))
	for u := range e.pending {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Run builds the collector, seeds it, and blocks until the queue drains.
func (e *CollyEngine) Run(ctx context.Context, dispatch func(Event)) error {
	e.dispatch = dispatch

	c := colly.NewCollector(e.collectorOptions(ctx)...)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: e.parallelism(),
		Delay:       e.site.Engine.Delay,
	}); err != nil {
		return err
	}

	timeout := e.site.Engine.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	c.SetRequestTimeout(timeout)
	c.WithTransport(e.transport())

	c.SetRedirectHandler(func(req *http.Request, _ []*http.Request) error {
		dispatch(Event{Kind: EventRedirect, URL: req.URL.String()})
		return nil
	})

	c.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
			return
		default:
		}
		for k, v := range e.site.Engine.Headers {
			r.Headers.Set(k, v)
		}
		if e.site.Engine.Cookie != "" {
			r.Headers.Set("Cookie", e.site.Engine.Cookie)
		}
		e.logger.Debug("fetching", "url", r.URL.String())
	})

	c.OnHTML("title", func(el *colly.HTMLElement) {
		el.Request.Ctx.Put(pageTitleCtxKey, strings.TrimSpace(el.Text))
	})

	c.OnResponse(e.handleResponse)
	c.OnScraped(e.handleScraped)
	c.OnError(e.handleError)

	e.mu.Lock()
	e.collector = c
	seeds := e.seeds
	e.seeds = nil
	e.mu.Unlock()

	for _, seed := range seeds {
		e.visit(seed, nil)
	}

	c.Wait()
	return ctx.Err()
}

// collectorOptions builds the collector options from the engine block.
func (e *CollyEngine) collectorOptions(ctx context.Context) []colly.CollectorOption {
	ua := e.site.Engine.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}

	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.Async(true),
		colly.UserAgent(ua),
		colly.DetectCharset(),
	}

	if !e.site.Engine.RespectRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	if e.site.Engine.MaxDepth > 0 {
		opts = append(opts, colly.MaxDepth(e.site.Engine.MaxDepth))
	}
	maxBody := e.site.Engine.MaxBodySize
	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodySize
	}
	opts = append(opts, colly.MaxBodySize(maxBody))

	return opts
}

func (e *CollyEngine) parallelism() int {
	if e.site.Engine.Parallelism > 0 {
		return e.site.Engine.Parallelism
	}
	return config.DefaultParallelism
}

// transport builds the HTTP transport for the run. TLS relaxation is scoped
// here, never applied process-wide.
func (e *CollyEngine) transport() *http.Transport {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: e.site.IgnoreInvalidSSL, //nolint:gosec // operator opt-in for sites with broken certificates
	}

	if e.site.StrictCiphers {
		tlsConfig.MinVersion = tls.VersionTLS12
	} else {
		// Accept the legacy suites Go ships disabled so sites on old TLS
		// stacks can still be checked.
		tlsConfig.MinVersion = tls.VersionTLS10
		for _, suite := range tls.CipherSuites() {
			tlsConfig.CipherSuites = append(tlsConfig.CipherSuites, suite.ID)
		}
		for _, suite := range tls.InsecureCipherSuites() {
			tlsConfig.CipherSuites = append(tlsConfig.CipherSuites, suite.ID)
		}
	}

	return &http.Transport{
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
	}
}

// visit applies the fetch condition and hands the URL to the collector. URLs
// discovered on a page carry that page's request as via, so crawl depth
// accumulates and the configured max depth can trip. Refusals the collector
// raises synchronously are classified here; failures after the request is in
// flight arrive through OnError.
func (e *CollyEngine) visit(rawURL string, via *colly.Request) {
	if e.cond != nil && !e.cond(rawURL) {
		e.dispatch(Event{Kind: EventFiltered, URL: rawURL})
		return
	}

	e.addPending(rawURL)

	var err error
	if via != nil {
		err = via.Visit(rawURL)
	} else {
		err = e.collector.Visit(rawURL)
	}
	if err == nil {
		return
	}
	e.removePending(rawURL)

	var revisit *colly.AlreadyVisitedError
	switch {
	case errors.As(err, &revisit):
		// Revisits are the common case on any site with shared navigation.
	case errors.Is(err, colly.ErrMaxDepth), errors.Is(err, colly.ErrRobotsTxtBlocked), errors.Is(err, colly.ErrForbiddenDomain):
		e.dispatch(Event{Kind: EventDisallowed, URL: rawURL, Detail: err.Error()})
	case errors.Is(err, colly.ErrMissingURL):
		e.logger.Debug("skipping empty URL")
	default:
		e.dispatch(Event{Kind: EventQueueError, URL: rawURL, Detail: err.Error()})
	}
}

// handleResponse feeds the page to the discoverer and enqueues whatever it
// returns, one depth level below the page itself.
func (e *CollyEngine) handleResponse(r *colly.Response) {
	if e.disc == nil {
		return
	}
	for _, res := range e.disc.Discover(r.Body, r.Headers.Get("Content-Type"), r.Request.URL) {
		e.visit(res, r.Request)
	}
}

// handleScraped fires after every callback for a page has run, including the
// title extraction, so the success event carries the title.
func (e *CollyEngine) handleScraped(r *colly.Response) {
	pageURL := r.Request.URL.String()
	e.removePending(pageURL)
	e.dispatch(Event{
		Kind:        EventSuccess,
		URL:         pageURL,
		Status:      r.StatusCode,
		ContentType: r.Headers.Get("Content-Type"),
		Title:       r.Request.Ctx.Get(pageTitleCtxKey),
	})
}

// handleError classifies a failed fetch into an event.
func (e *CollyEngine) handleError(r *colly.Response, fetchErr error) {
	pageURL := r.Request.URL.String()
	e.removePending(pageURL)

	if errors.Is(fetchErr, colly.ErrRobotsTxtBlocked) {
		e.dispatch(Event{Kind: EventDisallowed, URL: pageURL, Detail: fetchErr.Error()})
		return
	}
	e.dispatch(classifyFetchError(pageURL, r.StatusCode, fetchErr))
}

// timeoutPatterns are substrings identifying a deadline failure. The HTTP
// client reports timeouts through several distinct error strings.
var timeoutPatterns = []string{
	"timeout",
	"deadline exceeded",
	"timed out",
}

// networkPatterns are substrings identifying a transport-level failure.
var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"broken pipe",
	"eof",
	"tls",
	"certificate",
}

// classifyFetchError maps a fetch failure to an Event. Classification is by
// status code first, then by error message: the HTTP client does not expose
// typed errors for most transport failures.
func classifyFetchError(pageURL string, status int, fetchErr error) Event {
	msg := fetchErr.Error()
	lower := strings.ToLower(msg)

	switch {
	case status >= 400:
		return Event{Kind: EventHTTPError, URL: pageURL, Status: status, Detail: msg}
	case containsAny(lower, timeoutPatterns):
		return Event{Kind: EventTimeout, URL: pageURL, Detail: msg}
	case strings.Contains(lower, "gzip"):
		return Event{Kind: EventGzipError, URL: pageURL, Detail: msg}
	case containsAny(lower, networkPatterns):
		return Event{Kind: EventFetchError, URL: pageURL, Detail: msg}
	default:
		return Event{Kind: EventClientError, URL: pageURL, Detail: msg}
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func (e *CollyEngine) addPending(rawURL string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[rawURL] = struct{}{}
}

func (e *CollyEngine) removePending(rawURL string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, rawURL)
}
