// Package database provides optional SQLite-backed persistence for crawl
// runs. When enabled, each run logs the pages it fetched and its finalized
// report, so results can be inspected or compared after the process exits.
//
// The store is a single database file per data directory, opened with a
// single writer connection as SQLite requires.
package database
