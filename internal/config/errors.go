package config

import "errors"

// Validation errors returned by Config.Validate. Package-level sentinels so
// callers can branch with errors.Is while the messages stay human-readable.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed URL specified: provide one or more URLs to check")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are requested.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidSpoolInterval is returned for a negative spool interval.
	// Use zero to disable spool reporting.
	ErrInvalidSpoolInterval = errors.New("invalid spool interval: must be non-negative")

	// ErrInvalidDelay is returned for a negative request delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned for a negative request timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned for a negative body size limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
