package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anchorlint/anchorlint/internal/anchor"
	"github.com/anchorlint/anchorlint/internal/config"
	"github.com/anchorlint/anchorlint/internal/discover"
	"github.com/anchorlint/anchorlint/internal/pattern"
	"github.com/anchorlint/anchorlint/internal/record"
	"github.com/anchorlint/anchorlint/internal/title"
)

// State is a phase of a crawl run.
type State int

// Crawl run phases. A Runner moves strictly forward: configured, running,
// draining, complete.
const (
	// StateConfigured means the Runner is built but Run has not been called.
	StateConfigured State = iota

	// StateRunning means the engine is fetching and the queue may grow.
	StateRunning

	// StateDraining means fetching has stopped and the anchor ledgers are
	// being reconciled.
	StateDraining

	// StateComplete means the report has been finalized.
	StateComplete
)

// String returns the phase name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// spoolSampleSize bounds how many queued URLs each spool log line lists.
const spoolSampleSize = 5

// Runner orchestrates one crawl of one site: it seeds the engine, routes
// engine events into the recorder, reconciles the anchor ledgers after the
// queue drains, and finalizes the report.
//
// A Runner is single-use. Build it, call Run once, read the report.
type Runner struct {
	root     *url.URL
	site     config.SiteConfig
	engine   Engine
	tracker  *anchor.Tracker
	recorder *record.Recorder
	logger   *slog.Logger
	observer func(Event)

	includes []pattern.Pattern
	excludes []pattern.Pattern

	mu       sync.Mutex
	state    State
	filtered map[string]struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithEngine replaces the default colly engine. Used by tests and callers
// that bring their own fetch loop.
func WithEngine(e Engine) Option {
	return func(r *Runner) {
		r.engine = e
	}
}

// WithLogger sets the logger for run diagnostics and spool reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithFetchObserver installs a callback invoked for every successful page
// fetch, after the event has been counted. Used to persist page logs.
func WithFetchObserver(fn func(Event)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner validates the seed and wires the crawl collaborators. The seed
// must be an absolute http or https URL; anything else fails here, before any
// network traffic.
func NewRunner(seed string, site config.SiteConfig, opts ...Option) (*Runner, error) {
	root, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		root:     root,
		site:     site,
		tracker:  anchor.NewTracker(),
		recorder: record.NewRecorder(),
		logger:   slog.Default(),
		state:    StateConfigured,
		includes: toPatterns(site.IncludePatterns),
		excludes: toPatterns(site.ExcludePatterns),
		filtered: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.engine == nil {
		r.engine = NewCollyEngine(site, r.logger)
	}

	discOpts := []discover.Option{discover.WithLogger(r.logger)}
	if site.TitlePattern != "" {
		validator, err := title.NewValidator(site.TitlePattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTitlePattern, err)
		}
		discOpts = append(discOpts, discover.WithTitleValidator(validator, toPatterns(site.TitlePages)))
	}
	r.engine.SetDiscoverer(discover.New(root, r.tracker, r.recorder, discOpts...))
	r.engine.SetFetchCondition(func(rawURL string) bool {
		return pattern.Allowed(r.includes, r.excludes, rawURL, r.root)
	})

	return r, nil
}

// parseSeed validates and normalizes a seed URL into the crawl root.
func parseSeed(seed string) (*url.URL, error) {
	root, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if (root.Scheme != "http" && root.Scheme != "https") || root.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	root.Fragment = ""
	root.RawQuery = ""
	if root.Path == "" {
		root.Path = "/"
	}
	return root, nil
}

// Root returns the normalized crawl root.
func (r *Runner) Root() *url.URL {
	return r.root
}

// State returns the current run phase.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.logger.Debug("crawl state changed", "state", s.String())
}

// Run executes the crawl: seed, fetch until the queue drains, reconcile
// anchors, finalize. The returned report is complete even when ctx was
// cancelled mid-run; the accompanying error reports the cancellation.
func (r *Runner) Run(ctx context.Context) (*record.Report, error) {
	r.mu.Lock()
	if r.state != StateConfigured {
		r.mu.Unlock()
		return nil, ErrAlreadyRan
	}
	r.state = StateRunning
	r.mu.Unlock()

	r.logger.Info("crawl started", "site", r.root.String())

	r.engine.Enqueue(r.root.String())
	for _, path := range r.site.AdditionalPaths {
		r.enqueuePath(path)
	}

	runErr := r.runEngine(ctx)

	r.setState(StateDraining)
	for _, rec := range r.tracker.FindErrors() {
		r.recorder.Add(rec)
	}

	r.setState(StateComplete)
	report := r.recorder.Report(r.root.String())
	r.logger.Info("crawl complete",
		"site", report.Site,
		"successes", report.Successes,
		"errors", report.ErrorCount(),
	)
	return report, runErr
}

// enqueuePath seeds an additional entry point, resolved against the root.
func (r *Runner) enqueuePath(path string) {
	ref, err := url.Parse(path)
	if err != nil {
		r.recorder.Add(record.Record{
			Kind:   record.KindQueueError,
			URL:    path,
			Detail: "invalid additional path: " + err.Error(),
		})
		return
	}
	r.engine.Enqueue(r.root.ResolveReference(ref).String())
}

// runEngine drives the engine alongside the spool reporter until the queue
// drains or ctx is cancelled.
func (r *Runner) runEngine(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	spoolCtx, stopSpool := context.WithCancel(gctx)

	g.Go(func() error {
		defer stopSpool()
		return r.engine.Run(gctx, r.dispatch)
	})

	if r.site.SpoolInterval > 0 {
		g.Go(func() error {
			r.reportSpool(spoolCtx)
			return nil
		})
	}

	return g.Wait()
}

// reportSpool logs the queued-but-unfetched URLs at the configured interval
// until the run ends.
func (r *Runner) reportSpool(ctx context.Context) {
	ticker := time.NewTicker(r.site.SpoolInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spooled := r.engine.Spooled()
			sample := spooled
			if len(sample) > spoolSampleSize {
				sample = sample[:spoolSampleSize]
			}
			r.logger.Info("spool", "queued", len(spooled), "sample", sample)
		}
	}
}

// dispatch routes one engine event into the recorder. It may be called from
// multiple fetch goroutines; the recorder handles its own locking.
func (r *Runner) dispatch(ev Event) {
	switch ev.Kind {
	case EventSuccess:
		r.recorder.CountSuccess()
		if r.observer != nil {
			r.observer(ev)
		}
	case EventRedirect:
		r.recorder.CountRedirect()
	case EventDisallowed:
		r.recorder.CountDisallowed()
	case EventFiltered:
		// Engines only dedupe visited URLs, so every page linking to a
		// filtered URL re-reports it. Record each filtered URL once.
		if !r.markFiltered(ev.URL) {
			return
		}
		r.recorder.Add(record.Record{
			Kind:   record.KindIgnored,
			URL:    ev.URL,
			Detail: r.filterDetail(ev.URL),
		})
	case EventHTTPError:
		r.recorder.Add(record.Record{Kind: record.KindHTTPError, URL: ev.URL, Status: ev.Status, Detail: ev.Detail})
	case EventFetchError:
		r.recorder.Add(record.Record{Kind: record.KindFetchError, URL: ev.URL, Detail: ev.Detail})
	case EventTimeout:
		r.recorder.Add(record.Record{Kind: record.KindTimeout, URL: ev.URL, Detail: ev.Detail})
	case EventGzipError:
		r.recorder.Add(record.Record{Kind: record.KindGzipError, URL: ev.URL, Detail: ev.Detail})
	case EventClientError:
		r.recorder.Add(record.Record{Kind: record.KindClientError, URL: ev.URL, Detail: ev.Detail})
	case EventQueueError:
		r.recorder.Add(record.Record{Kind: record.KindQueueError, URL: ev.URL, Detail: ev.Detail})
	}
}

// markFiltered records that a URL was rejected by the fetch condition,
// returning false when it was already recorded.
func (r *Runner) markFiltered(rawURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.filtered[rawURL]; seen {
		return false
	}
	r.filtered[rawURL] = struct{}{}
	return true
}

// filterDetail names the rule that kept a URL out of the crawl.
func (r *Runner) filterDetail(rawURL string) string {
	if p, ok := pattern.FirstMatching(r.excludes, rawURL, r.root); ok {
		return "excluded by pattern " + string(p)
	}
	return "not matched by any include pattern"
}

func toPatterns(raw []string) []pattern.Pattern {
	if len(raw) == 0 {
		return nil
	}
	patterns := make([]pattern.Pattern, len(raw))
	for i, p := range raw {
		patterns[i] = pattern.Pattern(p)
	}
	return patterns
}
