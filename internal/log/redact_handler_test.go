package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	t.Run("masks credential headers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("request sent",
			"cookie", "session=abc123",
			"authorization", "Bearer tok",
			"url", "https://site.test/",
		)

		out := buf.String()
		if strings.Contains(out, "abc123") || strings.Contains(out, "Bearer tok") {
			t.Errorf("credentials leaked into log output: %s", out)
		}
		if !strings.Contains(out, MaskValue) {
			t.Errorf("expected masked value in output: %s", out)
		}
		if !strings.Contains(out, "https://site.test/") {
			t.Errorf("non-sensitive attribute should pass through: %s", out)
		}
	})

	t.Run("key matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Info("headers", "Authorization", "secret")

		if strings.Contains(buf.String(), "secret") {
			t.Errorf("mixed-case key leaked: %s", buf.String())
		}
	})

	t.Run("masks attributes added via With", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true).With("x-api-key", "k-123")
		logger.Info("hello")

		if strings.Contains(buf.String(), "k-123") {
			t.Errorf("With-attached credential leaked: %s", buf.String())
		}
	})

	t.Run("masks inside groups", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Info("request", slog.Group("headers", "cookie", "c=1", "accept", "text/html"))

		out := buf.String()
		if strings.Contains(out, "c=1") {
			t.Errorf("grouped credential leaked: %s", out)
		}
		if !strings.Contains(out, "text/html") {
			t.Errorf("grouped non-sensitive attribute should pass through: %s", out)
		}
	})

	t.Run("default level hides debug output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("hidden")
		logger.Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("debug record emitted at default level: %s", out)
		}
		if !strings.Contains(out, "shown") {
			t.Errorf("warn record missing: %s", out)
		}
	})

	t.Run("JSON logger masks too", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewJSONLogger(&buf, true)
		logger.Info("req", "set-cookie", "sid=9")

		if strings.Contains(buf.String(), "sid=9") {
			t.Errorf("credential leaked in JSON output: %s", buf.String())
		}
	})
}
