// Package report renders finalized crawl reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for CI job summaries
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. Report data lives in
// the record package; this package only formats it.
package report
