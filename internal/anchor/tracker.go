package anchor

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/anchorlint/anchorlint/internal/record"
)

// Tracker accumulates fragment expectations and declarations across an
// unbounded, unordered sequence of page fetches. A page may be fetched before
// or after the pages linking into it; the tracker only reconciles the two
// ledgers once the crawl has fully drained.
//
// The tracker exclusively owns both ledgers for the lifetime of one crawl run.
// All methods are safe for concurrent use because the engine runs its
// callbacks from multiple fetch goroutines.
type Tracker struct {
	mu sync.Mutex

	// expected maps normalized URL to the set of fragment ids some page
	// linked to. Grows monotonically; membership is what matters, not
	// insertion order.
	expected map[string]map[string]struct{}

	// declared maps normalized URL to the set of id/name attributes the
	// page actually carries. Populated only once that page is fetched and
	// parsed; a URL that is out of scope or fails to fetch never appears.
	declared map[string]map[string]struct{}
}

// NewTracker creates an empty Tracker for a single crawl run.
func NewTracker() *Tracker {
	return &Tracker{
		expected: make(map[string]map[string]struct{}),
		declared: make(map[string]map[string]struct{}),
	}
}

// NormalizeURL canonicalizes u as the cross-page join key: the fragment and
// query string are stripped, scheme and host are lowercased, and an empty
// path becomes "/". Two URLs differing only by fragment or query normalize
// identically.
func NormalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if c.Path == "" {
		c.Path = "/"
	}
	return c.String()
}

// RegisterExpectedHash records that some page links to href's fragment. The
// href is resolved against the source page, so a fragment-only href such as
// "#section" targets the source page itself. Hrefs without a fragment are a
// no-op. Duplicate registrations collapse into one expectation.
func (t *Tracker) RegisterExpectedHash(href string, source *url.URL) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || ref.Fragment == "" {
		return
	}

	target := source.ResolveReference(ref)
	key := NormalizeURL(target)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expected[key] == nil {
		t.expected[key] = make(map[string]struct{})
	}
	t.expected[key][ref.Fragment] = struct{}{}
}

// RecordDeclaredIDs walks the parsed document and records every id and name
// attribute as a declared fragment target of pageURL. Calling it twice with
// the same document yields the same declared set.
//
// This runs for every fetched HTML page, own-domain or not: other pages may
// legitimately link to fragments on an off-domain page.
func (t *Tracker) RecordDeclaredIDs(pageURL *url.URL, doc *goquery.Document) {
	key := NormalizeURL(pageURL)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.declared[key] == nil {
		t.declared[key] = make(map[string]struct{})
	}
	set := t.declared[key]

	doc.Find("[id], [name]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			set[id] = struct{}{}
		}
		if name, ok := s.Attr("name"); ok && name != "" {
			set[name] = struct{}{}
		}
	})
}

// FindErrors reconciles the two ledgers: every expected (url, fragment) pair
// whose url has no declared set, or whose declared set lacks the fragment, is
// reported as a broken-fragment record.
//
// It must be called exactly once, after the crawl queue is fully drained.
// Calling earlier would report false positives for pages not yet visited.
//
// A target that was never fetched is reported the same way as one that was
// fetched but lacks the id; the record detail distinguishes the two so the
// report stays readable, but both fail the run.
func (t *Tracker) FindErrors() []record.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []record.Record
	for target, fragments := range t.expected {
		declared, fetched := t.declared[target]
		for fragment := range fragments {
			if fetched {
				if _, ok := declared[fragment]; ok {
					continue
				}
				out = append(out, record.Record{
					Kind:   record.KindBrokenFragment,
					URL:    target,
					Detail: "no element with id or name " + strconv.Quote(fragment),
				})
				continue
			}
			out = append(out, record.Record{
				Kind:   record.KindBrokenFragment,
				URL:    target,
				Detail: "target page never fetched; fragment " + strconv.Quote(fragment) + " unverified",
			})
		}
	}

	// Deterministic report order across runs.
	sort.Slice(out, func(i, j int) bool {
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}
