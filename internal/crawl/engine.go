package crawl

import (
	"context"
	"net/url"
)

// EventKind classifies an engine callback.
type EventKind int

// Engine event kinds. Every fetch outcome the engine observes maps to
// exactly one of these.
const (
	// EventSuccess is a page fetched with a 2xx status.
	EventSuccess EventKind = iota

	// EventRedirect is one followed redirect hop.
	EventRedirect

	// EventDisallowed is a fetch the engine refused on its own policy,
	// e.g. robots rules or the configured depth limit.
	EventDisallowed

	// EventFiltered is a URL rejected by the fetch condition before any
	// request was made.
	EventFiltered

	// EventHTTPError is a fetch that completed with a 4xx or 5xx status.
	EventHTTPError

	// EventFetchError is a transport failure: refused or reset
	// connections, DNS failures, TLS handshake errors.
	EventFetchError

	// EventTimeout is a fetch that exceeded the request deadline.
	EventTimeout

	// EventGzipError is a response body that failed decompression.
	EventGzipError

	// EventClientError is a failure raised inside the HTTP client itself.
	EventClientError

	// EventQueueError is a failure to enqueue a discovered URL.
	EventQueueError
)

// Event is one engine outcome, delivered to the dispatch callback passed to
// Run. Fields beyond Kind and URL are populated where they apply: Status for
// HTTP responses, ContentType and Title for successful page fetches, Detail
// for failures.
type Event struct {
	Kind        EventKind
	URL         string
	Status      int
	ContentType string
	Title       string
	Detail      string
}

// FetchCondition decides whether a URL may be fetched. The engine consults it
// for every URL before issuing a request; rejected URLs surface as
// EventFiltered events.
type FetchCondition func(rawURL string) bool

// Discoverer derives the outbound URL list for a fetched page. The engine
// never extracts links itself.
type Discoverer interface {
	Discover(body []byte, contentType string, pageURL *url.URL) []string
}

// Engine abstracts the fetch loop so the crawl orchestration can be tested
// without network access. The production implementation is CollyEngine.
//
// Configuration methods must be called before Run. Run blocks until the
// queue drains or ctx is cancelled, invoking dispatch for every outcome;
// dispatch may be called from multiple goroutines.
type Engine interface {
	// SetFetchCondition installs the URL filter.
	SetFetchCondition(cond FetchCondition)

	// SetDiscoverer installs the link extractor applied to fetched pages.
	SetDiscoverer(d Discoverer)

	// Enqueue adds a URL to the fetch queue. Before Run it seeds the
	// queue; the engine itself enqueues discovered URLs during the run.
	Enqueue(rawURL string)

	// Run fetches until the queue drains, dispatching an Event per
	// outcome. It returns ctx.Err() when cancelled, nil otherwise.
	Run(ctx context.Context, dispatch func(Event)) error

	// Spooled returns a snapshot of URLs enqueued but not yet resolved.
	Spooled() []string
}
