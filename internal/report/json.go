package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/anchorlint/anchorlint/internal/record"
)

// JSONWriter outputs the full report as indented JSON, for CI pipelines that
// post-process the results.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as JSON.
func (w *JSONWriter) Write(report *record.Report) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
