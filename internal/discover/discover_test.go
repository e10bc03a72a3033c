package discover

import (
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/anchorlint/anchorlint/internal/anchor"
	"github.com/anchorlint/anchorlint/internal/pattern"
	"github.com/anchorlint/anchorlint/internal/record"
	"github.com/anchorlint/anchorlint/internal/title"
)

func parseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

func newDiscoverer(t *testing.T, opts ...Option) (*Discoverer, *anchor.Tracker, *record.Recorder) {
	t.Helper()
	tracker := anchor.NewTracker()
	recorder := record.NewRecorder()
	d := New(parseURL(t, "https://site.test/"), tracker, recorder, opts...)
	return d, tracker, recorder
}

func sorted(urls []string) []string {
	out := make([]string, len(urls))
	copy(out, urls)
	sort.Strings(out)
	return out
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("non-HTML content yields no resources", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`{"href": "https://site.test/page"}`)

		if got := d.Discover(body, "application/json", parseURL(t, "https://site.test/api")); got != nil {
			t.Errorf("expected nil for non-HTML content, got %v", got)
		}
	})

	t.Run("mailto links are filtered", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><body>
			<a href="mailto:a@b.com">a</a>
			<a href="https://x/y">x</a>
			<a href="MAILTO:c@d.com">c</a>
		</body></html>`)

		got := d.Discover(body, "text/html; charset=utf-8", parseURL(t, "https://site.test/"))
		want := []string{"https://x/y"}
		if len(got) != 1 || got[0] != want[0] {
			t.Errorf("expected exactly %v, got %v", want, got)
		}
	})

	t.Run("set is stable across invocations, order randomized only", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><body>
			<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a>
			<a href="/d">d</a><a href="/e">e</a>
		</body></html>`)
		page := parseURL(t, "https://site.test/")

		first := sorted(d.Discover(body, "text/html", page))
		for i := 0; i < 5; i++ {
			again := sorted(d.Discover(body, "text/html", page))
			if len(again) != len(first) {
				t.Fatalf("set size changed between invocations: %d vs %d", len(again), len(first))
			}
			for j := range first {
				if again[j] != first[j] {
					t.Fatalf("set changed between invocations: %v vs %v", again, first)
				}
			}
		}
	})

	t.Run("duplicates and fragments collapse to one resource", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><body>
			<a href="/about">1</a>
			<a href="/about#team">2</a>
			<a href="https://site.test/about">3</a>
		</body></html>`)

		got := d.Discover(body, "text/html", parseURL(t, "https://site.test/"))
		if len(got) != 1 {
			t.Errorf("expected 1 deduplicated resource, got %v", got)
		}
	})

	t.Run("links inside pre code and svg are not resources", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><body>
			<pre><a href="/from-pre">p</a></pre>
			<code><a href="/from-code">c</a></code>
			<svg><a href="/from-svg">s</a></svg>
			<a href="/real">real</a>
		</body></html>`)

		got := d.Discover(body, "text/html", parseURL(t, "https://site.test/"))
		if len(got) != 1 || got[0] != "https://site.test/real" {
			t.Errorf("expected only /real to survive subtree removal, got %v", got)
		}
	})

	t.Run("off-host pages register ids but yield no resources", func(t *testing.T) {
		t.Parallel()

		d, tracker, _ := newDiscoverer(t)

		// An own-host page links to an off-host fragment.
		ownBody := []byte(`<html><body><a href="https://external.example/page#frag">x</a></body></html>`)
		d.Discover(ownBody, "text/html", parseURL(t, "https://site.test/"))

		// The off-host page is fetched and declares the id; no links followed.
		extBody := []byte(`<html><body><div id="frag"></div><a href="https://elsewhere.example/">no</a></body></html>`)
		got := d.Discover(extBody, "text/html", parseURL(t, "https://external.example/page"))
		if got != nil {
			t.Errorf("expected no resources from off-host page, got %v", got)
		}

		if errs := tracker.FindErrors(); len(errs) != 0 {
			t.Errorf("expected cross-domain fragment to resolve, got %v", errs)
		}
	})

	t.Run("script and img sources are discovered", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><head>
			<link href="/style.css" rel="stylesheet">
			<script src="/app.js"></script>
		</head><body><img src="/logo.png"></body></html>`)

		got := sorted(d.Discover(body, "text/html", parseURL(t, "https://site.test/")))
		want := []string{
			"https://site.test/app.js",
			"https://site.test/logo.png",
			"https://site.test/style.css",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d resources, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("resource %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("false-positive token is scrubbed before parsing", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDiscoverer(t)
		body := []byte(`<html><body><p>See the URL(s) below</p><a href="/next">n</a></body></html>`)

		got := d.Discover(body, "text/html", parseURL(t, "https://site.test/"))
		if len(got) != 1 || got[0] != "https://site.test/next" {
			t.Errorf("expected only /next, got %v", got)
		}
	})

	t.Run("fragment references are registered independently of resources", func(t *testing.T) {
		t.Parallel()

		d, tracker, _ := newDiscoverer(t)
		body := []byte(`<html><body><a href="/about#team">team</a></body></html>`)
		d.Discover(body, "text/html", parseURL(t, "https://site.test/"))

		errs := tracker.FindErrors()
		if len(errs) != 1 {
			t.Fatalf("expected the #team expectation to be registered, got %v", errs)
		}
		if errs[0].URL != "https://site.test/about" {
			t.Errorf("expected expectation on /about, got %s", errs[0].URL)
		}
	})
}

func TestDiscoverTitleValidation(t *testing.T) {
	t.Parallel()

	newValidator := func(t *testing.T, pat string) *title.Validator {
		t.Helper()
		v, err := title.NewValidator(pat)
		if err != nil {
			t.Fatalf("failed to compile title pattern: %v", err)
		}
		return v
	}

	t.Run("mismatch is recorded for own-host pages", func(t *testing.T) {
		t.Parallel()

		v := newValidator(t, "^Home")
		d, _, recorder := newDiscoverer(t, WithTitleValidator(v, nil))

		body := []byte(`<html><head><title>Welcome</title></head><body></body></html>`)
		d.Discover(body, "text/html", parseURL(t, "https://site.test/"))

		report := recorder.Report("https://site.test")
		if report.ErrorCount() != 1 {
			t.Fatalf("expected 1 title-mismatch record, got %d", report.ErrorCount())
		}
		rec := report.Records[0]
		if rec.Kind != record.KindTitleMismatch {
			t.Errorf("expected title-mismatch kind, got %s", rec.Kind)
		}
		if !strings.Contains(rec.Detail, "Welcome") || !strings.Contains(rec.Detail, "^Home") {
			t.Errorf("expected detail to carry actual title and pattern, got %q", rec.Detail)
		}
	})

	t.Run("title pages restrict where the pattern applies", func(t *testing.T) {
		t.Parallel()

		v := newValidator(t, "^Docs")
		d, _, recorder := newDiscoverer(t, WithTitleValidator(v, []pattern.Pattern{"/docs/*"}))

		body := []byte(`<html><head><title>Welcome</title></head><body></body></html>`)
		d.Discover(body, "text/html", parseURL(t, "https://site.test/"))

		if got := recorder.ErrorCount(); got != 0 {
			t.Errorf("expected no record for a page outside the title pages, got %d", got)
		}

		d.Discover(body, "text/html", parseURL(t, "https://site.test/docs/intro"))
		if got := recorder.ErrorCount(); got != 1 {
			t.Errorf("expected 1 record for a docs page, got %d", got)
		}
	})

	t.Run("off-host pages are never title-checked", func(t *testing.T) {
		t.Parallel()

		v := newValidator(t, "^Home")
		d, _, recorder := newDiscoverer(t, WithTitleValidator(v, nil))

		body := []byte(`<html><head><title>Other</title></head><body></body></html>`)
		d.Discover(body, "text/html", parseURL(t, "https://external.example/"))

		if got := recorder.ErrorCount(); got != 0 {
			t.Errorf("expected no title record for off-host page, got %d", got)
		}
	})
}
