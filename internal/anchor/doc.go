// Package anchor tracks fragment references across pages and reconciles them
// at crawl completion.
//
// Two ledgers are kept, both keyed by normalized URL (fragment and query
// stripped): the expected ledger holds every "#id" some page linked to, and
// the declared ledger holds every id/name attribute a fetched page actually
// carries. No ordering is assumed between the two registrations for a given
// page; reconciliation is deferred until the crawl has fully drained.
package anchor
