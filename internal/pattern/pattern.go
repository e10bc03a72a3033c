package pattern

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Pattern is a glob expression tested against candidate URLs.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing "/*" to match a path prefix and everything below it
//   - a leading "*." to match a file extension anywhere in the path
//
// A pattern may be absolute ("https://example.com/docs/*") or relative
// ("/docs/*"). Relative patterns are matched against the candidate's path
// and against the candidate rewritten relative to the crawl root.
type Pattern string

// FirstMatching returns the first pattern in configured order that matches
// candidate, testing the absolute URL and, for relative patterns, the URL
// rewritten against root. It reports false when no pattern matches.
//
// The function is pure: it never mutates its arguments and has no state.
func FirstMatching(patterns []Pattern, candidate string, root *url.URL) (Pattern, bool) {
	for _, p := range patterns {
		if p.Matches(candidate, root) {
			return p, true
		}
	}
	return "", false
}

// Allowed reports whether candidate is eligible for fetching under the given
// include and exclude pattern lists: a URL is fetched iff no exclude pattern
// matches it and, when include patterns are configured, at least one of them
// matches it.
func Allowed(includes, excludes []Pattern, candidate string, root *url.URL) bool {
	if _, excluded := FirstMatching(excludes, candidate, root); excluded {
		return false
	}
	if len(includes) == 0 {
		return true
	}
	_, included := FirstMatching(includes, candidate, root)
	return included
}

// Matches reports whether the pattern matches candidate.
func (p Pattern) Matches(candidate string, root *url.URL) bool {
	pat := string(p)
	if pat == "" {
		return false
	}

	// Absolute candidate against the raw pattern.
	if matchGlob(pat, candidate) {
		return true
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	candidatePath := u.Path
	if candidatePath == "" {
		candidatePath = "/"
	}

	// Relative patterns match the candidate's path directly.
	if !isAbsolute(pat) && matchGlob(pat, candidatePath) {
		return true
	}

	// A relative pattern rewritten against the root URL matches the
	// candidate's absolute form.
	if !isAbsolute(pat) && root != nil {
		rewritten := root.Scheme + "://" + root.Host + "/" + strings.TrimPrefix(pat, "/")
		if matchGlob(rewritten, candidate) {
			return true
		}
	}

	return false
}

// isAbsolute reports whether the pattern carries its own scheme.
func isAbsolute(pat string) bool {
	return strings.Contains(pat, "://")
}

// matchGlob checks a single glob pattern against a value.
//
// Examples:
//   - "/private/*" matches "/private/secret" and "/private"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchGlob(pat, value string) bool {
	// "/prefix/*" matches the prefix itself and anything below it.
	if strings.HasSuffix(pat, "/*") {
		prefix := strings.TrimSuffix(pat, "/*")
		if value == prefix || strings.HasPrefix(value, prefix+"/") {
			return true
		}
	}

	// "*.ext" matches on the extension regardless of directory depth.
	if strings.HasPrefix(pat, "*.") {
		if strings.HasSuffix(value, strings.TrimPrefix(pat, "*")) {
			return true
		}
	}

	// filepath.Match handles * and ? within a single segment.
	if matched, err := filepath.Match(pat, value); err == nil && matched {
		return true
	}

	// Segment-free patterns also match against the final path element.
	if strings.Contains(pat, "*") && !strings.Contains(pat, "/") {
		if matched, err := filepath.Match(pat, path.Base(value)); err == nil && matched {
			return true
		}
	}

	return false
}
