package config

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"https://site.test/"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("missing seed", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.Validate(); !errors.Is(err, ErrNoSeed) {
			t.Errorf("expected ErrNoSeed, got %v", err)
		}
	})

	t.Run("zero batch size", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"https://site.test/"}
		cfg.BatchSize = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidBatchSize) {
			t.Errorf("expected ErrInvalidBatchSize, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"https://site.test/"}
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("negative spool interval in defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"https://site.test/"}
		cfg.File.Defaults.SpoolInterval = -time.Second
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidSpoolInterval) {
			t.Errorf("expected ErrInvalidSpoolInterval, got %v", err)
		}
	})

	t.Run("negative engine timeout in site block", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"https://site.test/"}
		cfg.File.Sites["site.test"] = SiteConfig{
			Engine: EngineConfig{Timeout: -time.Second},
		}
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})
}

func TestSiteFor(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			ExcludePatterns: []string{"/private/*"},
			TitlePattern:    "^Default",
			Engine: EngineConfig{
				UserAgent: "default-agent",
				Headers:   map[string]string{"Accept-Language": "en"},
			},
		},
		Sites: map[string]SiteConfig{
			"site.test": {
				TitlePattern: "^Site",
				Engine: EngineConfig{
					Cookie:  "session=abc",
					Headers: map[string]string{"Authorization": "Bearer t"},
				},
			},
		},
	}

	t.Run("known host merges over defaults", func(t *testing.T) {
		t.Parallel()

		site := cf.SiteFor("site.test")
		if site.TitlePattern != "^Site" {
			t.Errorf("expected override title pattern, got %q", site.TitlePattern)
		}
		if len(site.ExcludePatterns) != 1 || site.ExcludePatterns[0] != "/private/*" {
			t.Errorf("expected defaults exclude patterns to survive, got %v", site.ExcludePatterns)
		}
		if site.Engine.UserAgent != "default-agent" {
			t.Errorf("expected defaults user agent, got %q", site.Engine.UserAgent)
		}
		if site.Engine.Cookie != "session=abc" {
			t.Errorf("expected override cookie, got %q", site.Engine.Cookie)
		}
		if site.Engine.Headers["Authorization"] != "Bearer t" || site.Engine.Headers["Accept-Language"] != "en" {
			t.Errorf("expected merged headers, got %v", site.Engine.Headers)
		}
	})

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		site := cf.SiteFor("other.test")
		if site.TitlePattern != "^Default" {
			t.Errorf("expected defaults title pattern, got %q", site.TitlePattern)
		}
	})
}
