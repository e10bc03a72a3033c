package report

import (
	"io"

	"github.com/anchorlint/anchorlint/internal/record"
)

// Writer outputs a finalized crawl report. Implementations cover terminal
// text, JSON for machine consumption, and Markdown for CI summaries; the
// destination (stdout, file) is fixed at construction.
type Writer interface {
	// Write outputs the report, returning the number of bytes written.
	Write(report *record.Report) (int, error)
}

// MultiWriter writes one report to several Writers, e.g. terminal plus file.
// It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer fanning out to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every configured Writer.
func (m *MultiWriter) Write(report *record.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter carries the shared output destination.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
