package title

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Validator checks page titles against a configured pattern. It is stateless
// once constructed; Validate never mutates the document.
type Validator struct {
	pattern *regexp.Regexp
}

// NewValidator compiles the title pattern. An invalid pattern is a
// configuration error and surfaces before the crawl starts.
func NewValidator(pattern string) (*Validator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Validator{pattern: re}, nil
}

// Failure describes a title that did not match the configured pattern.
type Failure struct {
	// Pattern is the configured expression the title was tested against.
	Pattern string

	// ActualTitle is the trimmed text content of the page's title element.
	ActualTitle string
}

// Validate extracts the page title and tests it against the pattern. It
// returns the failure details on mismatch, or ok=true when the title matches.
// A page with no title element is validated against the empty string.
func (v *Validator) Validate(doc *goquery.Document) (Failure, bool) {
	actual := strings.TrimSpace(doc.Find("title").First().Text())
	if v.pattern.MatchString(actual) {
		return Failure{}, true
	}
	return Failure{Pattern: v.pattern.String(), ActualTitle: actual}, false
}
