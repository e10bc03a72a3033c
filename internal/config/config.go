package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These are chosen for CI link checking of
// ordinary websites; everything can be overridden per site or via flags.
const (
	// DefaultTimeout is the per-request deadline. 30 seconds is generous
	// for static sites while keeping hung servers from stalling a CI job.
	DefaultTimeout = 30 * time.Second

	// DefaultParallelism bounds the engine's in-flight fetches per run.
	DefaultParallelism = 4

	// DefaultDelay is the politeness delay between requests to one host.
	DefaultDelay = 0 * time.Second

	// DefaultBatchSize is the number of sites checked concurrently when
	// several seeds are given. Sequential by default: link-check output
	// is easiest to read one site at a time.
	DefaultBatchSize = 1

	// DefaultMaxBodySize limits the response body read per page. Pages
	// larger than this are truncated before parsing.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the checker in HTTP requests so site
	// operators can recognize scanner traffic in their logs.
	DefaultUserAgent = "anchorlint/1.0 (+https://github.com/anchorlint/anchorlint)"

	// AppName is used for XDG directory paths.
	AppName = "anchorlint"
)

// Config holds the full configuration for one invocation. It is populated
// from CLI flags and the optional config file, validated once before any
// crawling begins, and passed by injection rather than global state.
type Config struct {
	// Seeds are the URLs to start checking from, one crawl run per seed.
	// Each must carry a scheme, host, and path.
	Seeds []string

	// ConfigFilePath is an explicit config file path. Empty means search
	// the working directory and then the home directory for .anchorlint.
	ConfigFilePath string

	// File holds the loaded config file (defaults plus per-site blocks).
	File *File

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONReport selects JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	// Directories are created as needed.
	ReportFile string

	// BatchSize is the number of seeds checked concurrently.
	BatchSize int

	// SaveToDB enables the SQLite crawl log.
	SaveToDB bool

	// DBDir is the directory holding the crawl-log database. Empty means
	// the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with defaults applied. Zero values would be
// wrong for several fields (batch size, timeouts), so construction goes
// through here.
func NewConfig() *Config {
	return &Config{
		BatchSize: DefaultBatchSize,
		File:      NewFile(),
	}
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any crawl starts.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	for _, site := range c.allSites() {
		if err := site.validate(); err != nil {
			return err
		}
	}
	return nil
}

// allSites returns the defaults block plus every per-site block.
func (c *Config) allSites() []SiteConfig {
	if c.File == nil {
		return nil
	}
	sites := []SiteConfig{c.File.Defaults}
	for _, s := range c.File.Sites {
		sites = append(sites, s)
	}
	return sites
}

// XDGDataDir returns the XDG data directory for anchorlint
// (~/.local/share/anchorlint on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for anchorlint.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
