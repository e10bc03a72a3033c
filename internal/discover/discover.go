package discover

import (
	"bytes"
	"log/slog"
	"math/rand"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anchorlint/anchorlint/internal/anchor"
	"github.com/anchorlint/anchorlint/internal/pattern"
	"github.com/anchorlint/anchorlint/internal/record"
	"github.com/anchorlint/anchorlint/internal/title"
)

// falsePositiveToken is a literal that trips URL extraction downstream while
// never being an actual link. It is removed from the raw bytes before parsing.
const falsePositiveToken = "URL(s)"

// Discoverer derives the outbound URL list for each fetched page and feeds
// the anchor tracker, the title validator, and the recorder along the way.
// The crawl engine calls Discover once per fetched document; the engine never
// derives links on its own.
//
// Discover is a synchronous transformation over an already-fetched buffer; it
// holds no state of its own beyond the injected collaborators.
type Discoverer struct {
	root       *url.URL
	tracker    *anchor.Tracker
	validator  *title.Validator
	titlePages []pattern.Pattern
	recorder   *record.Recorder
	logger     *slog.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithTitleValidator installs a title validator. The optional pages list
// restricts which own-host URLs the title pattern applies to; empty means all.
func WithTitleValidator(v *title.Validator, pages []pattern.Pattern) Option {
	return func(d *Discoverer) {
		d.validator = v
		d.titlePages = pages
	}
}

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// New creates a Discoverer for a crawl rooted at root.
func New(root *url.URL, tracker *anchor.Tracker, recorder *record.Recorder, opts ...Option) *Discoverer {
	d := &Discoverer{
		root:     root,
		tracker:  tracker,
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover extracts the set of URLs the page references.
//
// For every fetched HTML page, own-host or not, the page's id/name
// declarations are registered with the anchor tracker first: other pages may
// link to fragments here even when this page is out of crawl scope.
//
// Own-host pages additionally get their title validated, their pre/code/svg
// subtrees removed (their contents frequently hold link-like text that is not
// a navigable resource), their fragment references registered, and their
// outbound links collected. Off-host pages return an empty list so the crawl
// never follows links beyond the target site.
//
// The returned set is stable for a fixed input; only its order is randomized.
// Randomizing spreads concurrent load across hosts and avoids a fixed
// traversal order.
func (d *Discoverer) Discover(body []byte, contentType string, pageURL *url.URL) []string {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html") {
		return nil
	}

	sanitized := bytes.ReplaceAll(body, []byte(falsePositiveToken), nil)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(sanitized))
	if err != nil {
		d.logger.Warn("failed to parse document", "url", pageURL.String(), "error", err)
		return nil
	}

	d.tracker.RecordDeclaredIDs(pageURL, doc)

	if !strings.EqualFold(pageURL.Host, d.root.Host) {
		d.logger.Debug("off-host page, not following links", "url", pageURL.String())
		return nil
	}

	d.validateTitle(pageURL, doc)

	doc.Find("pre, code, svg").Remove()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			d.tracker.RegisterExpectedHash(href, pageURL)
		}
	})

	resources := d.collectResources(doc, pageURL)
	rand.Shuffle(len(resources), func(i, j int) {
		resources[i], resources[j] = resources[j], resources[i]
	})

	d.logger.Debug("discovered resources", "url", pageURL.String(), "count", len(resources))
	return resources
}

// validateTitle runs the title check when a validator is configured and the
// page falls under the configured title pages.
func (d *Discoverer) validateTitle(pageURL *url.URL, doc *goquery.Document) {
	if d.validator == nil {
		return
	}
	if len(d.titlePages) > 0 {
		if _, ok := pattern.FirstMatching(d.titlePages, pageURL.String(), d.root); !ok {
			return
		}
	}
	if failure, ok := d.validator.Validate(doc); !ok {
		d.recorder.Add(record.Record{
			Kind:   record.KindTitleMismatch,
			URL:    pageURL.String(),
			Detail: "title " + strconv.Quote(failure.ActualTitle) + " does not match " + strconv.Quote(failure.Pattern),
		})
	}
}

// collectResources gathers the outbound URL list from the sanitized tree:
// anchors, stylesheets/link targets, script and image sources. Mailto links
// are dropped, as are javascript/tel/data pseudo-links and bare fragments.
// The result is deduplicated on the fragment-stripped absolute URL.
func (d *Discoverer) collectResources(doc *goquery.Document, pageURL *url.URL) []string {
	seen := make(map[string]struct{})
	var resources []string

	add := func(raw string) {
		resolved := d.resolve(raw, pageURL)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		resources = append(resources, resolved)
	}

	doc.Find("a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
		}
	})
	doc.Find("script[src], img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})

	return resources
}

// resolve turns a raw attribute value into an absolute, fragment-stripped URL,
// or empty when the value is not a fetchable resource.
func (d *Discoverer) resolve(raw string, pageURL *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return ""
	}

	lower := strings.ToLower(raw)
	for _, scheme := range []string{"mailto:", "javascript:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	resolved := pageURL.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}
