// Package log builds the application's slog loggers, masking request-header
// credentials before they reach the output.
//
// The engine settings may carry a Cookie or Authorization header for checking
// sites behind login, and request-level debug logging would otherwise print
// them verbatim. RedactingHandler wraps any slog handler and masks those
// attribute values, so the mask applies to both text and JSON output.
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("request sent",
//	    "cookie", "session=abc123", // masked
//	    "url", "https://example.com",
//	)
package log
