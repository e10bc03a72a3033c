package record

import (
	"sync"
	"time"
)

// Record is a single classified failure (or informational note) tied to a URL.
type Record struct {
	// Kind classifies the record. See the Kind constants.
	Kind Kind `json:"kind"`

	// URL is the page or resource the record refers to.
	URL string `json:"url"`

	// Detail carries kind-specific context: the status text for HTTP
	// errors, the missing fragment for broken-fragment records, the
	// expected pattern and actual title for title mismatches.
	Detail string `json:"detail,omitempty"`

	// Status is the HTTP status code for http-error records, zero otherwise.
	Status int `json:"status,omitempty"`
}

// Recorder accumulates classified records and crawl counters for one run.
// It is safe for concurrent use: engine callbacks may fire from multiple
// fetch goroutines.
//
// Recording never fails and never panics; classification and storage must not
// take the crawl down.
type Recorder struct {
	mu         sync.Mutex
	records    []Record
	successes  int
	redirects  int
	disallowed int
}

// NewRecorder creates an empty Recorder for a single crawl run.
func NewRecorder() *Recorder {
	return &Recorder{records: make([]Record, 0)}
}

// Add stores a record. Records with an empty URL are stored as-is; the
// recorder does not validate, only accumulates.
func (r *Recorder) Add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// CountSuccess increments the successful-fetch counter.
func (r *Recorder) CountSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

// CountRedirect increments the redirect counter.
func (r *Recorder) CountRedirect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects++
}

// CountDisallowed increments the counter for fetches refused by robots rules
// or the engine's own policy.
func (r *Recorder) CountDisallowed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disallowed++
}

// ErrorCount returns the number of non-informational records so far.
func (r *Recorder) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return countErrors(r.records)
}

// Report finalizes the run into a Report. The recorder itself is not reset;
// it is discarded with the run.
func (r *Recorder) Report(site string) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]Record, len(r.records))
	copy(records, r.records)

	ignored := 0
	for _, rec := range records {
		if rec.Kind.Informational() {
			ignored++
		}
	}

	return &Report{
		Site:        site,
		CompletedAt: time.Now(),
		Successes:   r.successes,
		Redirects:   r.redirects,
		Disallowed:  r.disallowed,
		Ignored:     ignored,
		Records:     records,
	}
}

func countErrors(records []Record) int {
	n := 0
	for _, rec := range records {
		if !rec.Kind.Informational() {
			n++
		}
	}
	return n
}

// Report is the finalized aggregate of one crawl run: every record plus the
// fetch counters. It is created exactly once, at crawl completion.
type Report struct {
	// Site is the root URL of the checked site.
	Site string `json:"site"`

	// CompletedAt is when the crawl finished draining.
	CompletedAt time.Time `json:"completed_at"`

	// Successes is the number of pages fetched with a 2xx status.
	Successes int `json:"successes"`

	// Redirects is the number of redirect hops followed.
	Redirects int `json:"redirects"`

	// Disallowed is the number of fetches the engine refused.
	Disallowed int `json:"disallowed"`

	// Ignored is the number of informational records.
	Ignored int `json:"ignored"`

	// Records holds every record accumulated during the run.
	Records []Record `json:"records"`
}

// ErrorCount returns the number of non-informational records.
func (rp *Report) ErrorCount() int {
	return countErrors(rp.Records)
}

// ExitCode implements the process exit contract: zero iff no errors.
func (rp *Report) ExitCode() int {
	if rp.ErrorCount() > 0 {
		return 1
	}
	return 0
}

// KindGroup is one report section: a kind and its records.
type KindGroup struct {
	Kind    Kind
	Records []Record
}

// Grouped returns the records grouped by kind in report order. Kinds with no
// records are omitted.
func (rp *Report) Grouped() []KindGroup {
	byKind := make(map[Kind][]Record, len(kindNames))
	for _, rec := range rp.Records {
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	groups := make([]KindGroup, 0, len(byKind))
	for _, k := range allKinds {
		if recs, ok := byKind[k]; ok {
			groups = append(groups, KindGroup{Kind: k, Records: recs})
		}
	}
	return groups
}
