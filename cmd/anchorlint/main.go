// Package main provides the entry point for the anchorlint CLI.
//
// anchorlint crawls a website and verifies its internal link integrity:
// every href fragment must resolve to an element id on the target page,
// page titles can be validated against a pattern, and every fetch failure
// is classified and reported. The exit code is non-zero when any check
// fails, so it slots directly into CI.
//
// Usage:
//
//	anchorlint check https://example.com/
//	anchorlint check --json https://example.com/
//
// See --help for all available options.
package main

// main is the entry point for anchorlint.
func main() {
	Execute()
}
