package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anchorlint/anchorlint/internal/record"
)

func testReport() *record.Report {
	return &record.Report{
		Site:        "https://site.test/",
		CompletedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Successes:   12,
		Redirects:   2,
		Disallowed:  1,
		Ignored:     1,
		Records: []record.Record{
			{Kind: record.KindHTTPError, URL: "https://site.test/missing", Status: 404, Detail: "Not Found"},
			{Kind: record.KindBrokenFragment, URL: "https://site.test/about", Detail: `no element with id or name "team"`},
			{Kind: record.KindIgnored, URL: "https://site.test/private/x", Detail: "excluded by pattern /private/*"},
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("failing report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(testReport())
		if err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		out := buf.String()
		for _, want := range []string{
			"ANCHORLINT REPORT",
			"https://site.test/",
			"Successful fetches: 12",
			"BROKEN-FRAGMENT (1)",
			"HTTP-ERROR (1)",
			"[404] https://site.test/missing",
			`no element with id or name "team"`,
			"Result: FAIL (2 errors)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q:\n%s", want, out)
			}
		}

		// Content failures come before transport failures.
		if strings.Index(out, "BROKEN-FRAGMENT") > strings.Index(out, "HTTP-ERROR") {
			t.Error("expected broken-fragment section before http-error section")
		}
	})

	t.Run("passing report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rep := &record.Report{Site: "https://site.test/", CompletedAt: time.Now()}
		if _, err := NewSimpleWriter(&buf).Write(rep); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if !strings.Contains(buf.String(), "Result: PASS") {
			t.Errorf("expected PASS footer, got:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(testReport()); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	var decoded record.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON output: %v", err)
	}
	if decoded.Site != "https://site.test/" {
		t.Errorf("expected site round-trip, got %q", decoded.Site)
	}
	if len(decoded.Records) != 3 {
		t.Errorf("expected 3 records, got %d", len(decoded.Records))
	}
	if decoded.Records[0].Kind != record.KindHTTPError {
		t.Errorf("expected http-error kind, got %v", decoded.Records[0].Kind)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(testReport()); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# anchorlint Report",
		"## Crawl Summary",
		"### Broken Fragment (1)",
		"`https://site.test/missing`",
		"FAIL (2 errors)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q:\n%s", want, out)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write(*record.Report) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		if _, err := mw.Write(testReport()); err != nil {
			t.Fatalf("failed to write report: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.Write(testReport()); err == nil {
			t.Error("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected no output after failing writer")
		}
	})
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"broken-fragment", "Broken Fragment"},
		{"http-error", "Http Error"},
		{"ignored", "Ignored"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
