// Package crawl orchestrates a site check: it drives the fetch engine over
// the site's pages, routes fetch outcomes into the recorder, and reconciles
// the anchor ledgers once the queue drains.
//
// The Engine interface isolates the fetch loop; CollyEngine is the production
// implementation. The Runner owns the run lifecycle and moves through four
// phases: configured, running, draining, complete. Anchor reconciliation
// happens exactly once, in the draining phase, so every fragment reference is
// judged against the full set of fetched pages.
package crawl
