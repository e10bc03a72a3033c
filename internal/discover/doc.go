// Package discover implements the per-page resource discovery step that the
// crawl engine delegates to instead of its native link extraction.
//
// For each fetched HTML document it registers the page's declared anchors with
// the fragment tracker, validates the title on own-host pages, strips the
// pre/code/svg subtrees, registers every href fragment reference, and returns
// the sanitized, deduplicated outbound URL set in randomized order. Non-HTML
// documents and off-host pages yield an empty list.
package discover
