package crawl

import "errors"

var (
	// ErrInvalidSeed is returned when a seed URL is missing a scheme or
	// host, or uses a scheme other than http/https.
	ErrInvalidSeed = errors.New("seed URL must be absolute http or https")

	// ErrAlreadyRan is returned when Run is called on a Runner that has
	// already started. A Runner serves exactly one crawl.
	ErrAlreadyRan = errors.New("crawl already ran")

	// ErrInvalidTitlePattern is returned when the configured title pattern
	// is not a valid regular expression.
	ErrInvalidTitlePattern = errors.New("invalid title pattern")
)
