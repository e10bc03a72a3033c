package config

import "time"

// SiteConfig holds the checking rules for one site. The zero value checks
// everything with no title validation and default engine settings.
type SiteConfig struct {
	// ExcludePatterns are glob patterns for URLs that must never be
	// fetched. Matching URLs are counted as ignored, not errors.
	ExcludePatterns []string `yaml:"exclude,omitempty"`

	// IncludePatterns, when non-empty, restrict fetching to matching URLs.
	IncludePatterns []string `yaml:"include,omitempty"`

	// AdditionalPaths are extra entry points, relative to the root URL,
	// seeded into the queue before the crawl starts. Useful for pages not
	// reachable from the seed (error pages, standalone landing pages).
	AdditionalPaths []string `yaml:"additional_paths,omitempty"`

	// TitlePattern is a regular expression every checked page title must
	// match. Empty disables title validation.
	TitlePattern string `yaml:"title_pattern,omitempty"`

	// TitlePages are glob patterns restricting which pages the title
	// pattern applies to. Empty means every own-host page.
	TitlePages []string `yaml:"title_pages,omitempty"`

	// StrictCiphers restricts TLS to modern cipher suites. When false the
	// client also accepts the legacy suites Go ships disabled by default.
	StrictCiphers bool `yaml:"strict_ciphers,omitempty"`

	// IgnoreInvalidSSL skips certificate verification. Scoped to the
	// run's own HTTP transport, never process-wide.
	IgnoreInvalidSSL bool `yaml:"ignore_invalid_ssl,omitempty"`

	// SpoolInterval is how often the queued-but-unfetched URLs are logged
	// during the run. Zero disables spool reporting.
	SpoolInterval time.Duration `yaml:"spool_interval,omitempty"`

	// Engine is the pass-through block of engine-specific settings.
	Engine EngineConfig `yaml:"engine,omitempty"`
}

// EngineConfig is handed to the crawl engine adapter untouched by the rest
// of the pipeline.
type EngineConfig struct {
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// MaxDepth limits recursion from the seed. Zero means unlimited.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Parallelism bounds concurrent fetches. Zero means the default.
	Parallelism int `yaml:"parallelism,omitempty"`

	// Delay is the politeness delay between requests to the same host.
	Delay time.Duration `yaml:"delay,omitempty"`

	// Timeout is the per-request deadline. Zero means the default.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxBodySize limits the response body read per page, in bytes.
	MaxBodySize int `yaml:"max_body_size,omitempty"`

	// Headers are extra request headers, e.g. Authorization for checking
	// sites behind login. Values are masked in log output.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is sent as the Cookie header on every request.
	Cookie string `yaml:"cookie,omitempty"`

	// RespectRobotsTxt makes the engine honor robots.txt. Disabled by
	// default: the checker is usually run against the operator's own site.
	RespectRobotsTxt bool `yaml:"respect_robots_txt,omitempty"`
}

// validate checks the per-site values that can be wrong independent of any
// crawl.
func (s SiteConfig) validate() error {
	if s.SpoolInterval < 0 {
		return ErrInvalidSpoolInterval
	}
	if s.Engine.Delay < 0 {
		return ErrInvalidDelay
	}
	if s.Engine.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if s.Engine.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// File is the structure of the .anchorlint configuration file.
type File struct {
	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a hostname (optionally host:port) to its overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// NewFile returns an empty config file structure.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// SiteFor returns the effective configuration for host: the defaults block
// with the host's overrides applied field by field.
func (cf *File) SiteFor(host string) SiteConfig {
	result := cf.Defaults

	override, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if len(override.ExcludePatterns) > 0 {
		result.ExcludePatterns = override.ExcludePatterns
	}
	if len(override.IncludePatterns) > 0 {
		result.IncludePatterns = override.IncludePatterns
	}
	if len(override.AdditionalPaths) > 0 {
		result.AdditionalPaths = override.AdditionalPaths
	}
	if override.TitlePattern != "" {
		result.TitlePattern = override.TitlePattern
		result.TitlePages = override.TitlePages
	}
	if override.StrictCiphers {
		result.StrictCiphers = true
	}
	if override.IgnoreInvalidSSL {
		result.IgnoreInvalidSSL = true
	}
	if override.SpoolInterval != 0 {
		result.SpoolInterval = override.SpoolInterval
	}

	if override.Engine.UserAgent != "" {
		result.Engine.UserAgent = override.Engine.UserAgent
	}
	if override.Engine.MaxDepth != 0 {
		result.Engine.MaxDepth = override.Engine.MaxDepth
	}
	if override.Engine.Parallelism != 0 {
		result.Engine.Parallelism = override.Engine.Parallelism
	}
	if override.Engine.Delay != 0 {
		result.Engine.Delay = override.Engine.Delay
	}
	if override.Engine.Timeout != 0 {
		result.Engine.Timeout = override.Engine.Timeout
	}
	if override.Engine.MaxBodySize != 0 {
		result.Engine.MaxBodySize = override.Engine.MaxBodySize
	}
	if override.Engine.Cookie != "" {
		result.Engine.Cookie = override.Engine.Cookie
	}
	if override.Engine.RespectRobotsTxt {
		result.Engine.RespectRobotsTxt = true
	}
	if len(override.Engine.Headers) > 0 {
		if result.Engine.Headers == nil {
			result.Engine.Headers = make(map[string]string)
		}
		for k, v := range override.Engine.Headers {
			result.Engine.Headers[k] = v
		}
	}

	return result
}
