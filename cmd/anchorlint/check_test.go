package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anchorlint/anchorlint/internal/config"
	"github.com/anchorlint/anchorlint/internal/log"
)

func TestNewCheckCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCheckCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "check [url]..." {
			t.Errorf("expected use 'check [url]...', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"batch", "spool-interval", "config", "json", "markdown", "output", "save-db", "db-dir"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		cfg, err := buildConfig(cmd, []string{"https://site.test/"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://site.test/" {
			t.Errorf("expected seed from args, got %v", cfg.Seeds)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected default batch size, got %d", cfg.BatchSize)
		}
		if cfg.JSONReport || cfg.MarkdownReport {
			t.Error("expected text report by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected XDG data dir fallback for db-dir")
		}
	})

	t.Run("report flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		if err := cmd.Flags().Set("json", "true"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("output", "out/report.json"); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://site.test/"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if !cfg.JSONReport {
			t.Error("expected JSON report enabled")
		}
		if cfg.ReportFile != "out/report.json" {
			t.Errorf("expected report file path, got %q", cfg.ReportFile)
		}
	})

	t.Run("explicit missing config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"https://site.test/"}); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads config file and applies spool interval flag", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		content := "sites:\n  site.test:\n    title_pattern: \"^T\"\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cmd := NewCheckCmd()
		if err := cmd.Flags().Set("config", path); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("spool-interval", "5s"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://site.test/"})
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if cfg.File.SiteFor("site.test").TitlePattern != "^T" {
			t.Errorf("expected site config loaded, got %+v", cfg.File)
		}
		if cfg.File.Defaults.SpoolInterval != 5*time.Second {
			t.Errorf("expected spool interval from flag, got %v", cfg.File.Defaults.SpoolInterval)
		}
	})
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	newServer := func(withBrokenLink bool) *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head><title>Home</title></head><body><a href="/about#team">Team</a>`)
			if withBrokenLink {
				fmt.Fprint(w, `<a href="/gone">gone</a>`)
			}
			fmt.Fprint(w, `</body></html>`)
		})
		mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head><title>About</title></head><body><h2 id="team">Team</h2></body></html>`)
		})
		return httptest.NewServer(mux)
	}

	t.Run("clean site passes", func(t *testing.T) {
		t.Parallel()

		srv := newServer(false)
		defer srv.Close()

		cfg := config.NewConfig()
		cfg.Seeds = []string{srv.URL}
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.txt")

		var logBuf bytes.Buffer
		logger := log.NewLogger(&logBuf, false)

		if err := runCheck(context.Background(), cfg, logger); err != nil {
			t.Fatalf("expected clean check, got %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if !strings.Contains(string(data), "Result: PASS") {
			t.Errorf("expected PASS in report, got:\n%s", data)
		}
	})

	t.Run("broken link fails the check", func(t *testing.T) {
		t.Parallel()

		srv := newServer(true)
		defer srv.Close()

		cfg := config.NewConfig()
		cfg.Seeds = []string{srv.URL}
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.txt")

		var logBuf bytes.Buffer
		logger := log.NewLogger(&logBuf, false)

		err := runCheck(context.Background(), cfg, logger)
		if !errors.Is(err, errChecksFailed) {
			t.Fatalf("expected errChecksFailed, got %v", err)
		}
	})

	t.Run("saves run to database when enabled", func(t *testing.T) {
		t.Parallel()

		srv := newServer(false)
		defer srv.Close()

		cfg := config.NewConfig()
		cfg.Seeds = []string{srv.URL}
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.txt")
		cfg.SaveToDB = true
		cfg.DBDir = t.TempDir()

		var logBuf bytes.Buffer
		logger := log.NewLogger(&logBuf, false)

		if err := runCheck(context.Background(), cfg, logger); err != nil {
			t.Fatalf("expected clean check, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(cfg.DBDir, "anchorlint.db")); err != nil {
			t.Errorf("expected database file: %v", err)
		}
	})
}
