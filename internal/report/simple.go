package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/anchorlint/anchorlint/internal/record"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting so output pipes cleanly to files and other tools.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *record.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeGroups(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *record.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        ANCHORLINT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:       %s\n", report.Site)
	fmt.Fprintf(sb, "Completed:  %s\n", report.CompletedAt.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *record.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nCRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Successful fetches: %d\n", report.Successes)
	fmt.Fprintf(sb, "  Redirects:          %d\n", report.Redirects)
	fmt.Fprintf(sb, "  Disallowed:         %d\n", report.Disallowed)
	fmt.Fprintf(sb, "  Ignored:            %d\n", report.Ignored)
	fmt.Fprintf(sb, "  Errors:             %d\n", report.ErrorCount())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeGroups(sb *strings.Builder, report *record.Report) {
	for _, group := range report.Grouped() {
		sb.WriteString(strings.Repeat("-", 70))
		fmt.Fprintf(sb, "\n%s (%d)\n", strings.ToUpper(group.Kind.String()), len(group.Records))
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")

		for _, rec := range group.Records {
			if rec.Status != 0 {
				fmt.Fprintf(sb, "  [%d] %s\n", rec.Status, rec.URL)
			} else {
				fmt.Fprintf(sb, "  %s\n", rec.URL)
			}
			if rec.Detail != "" {
				fmt.Fprintf(sb, "      %s\n", rec.Detail)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *record.Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if report.ErrorCount() == 0 {
		sb.WriteString("Result: PASS\n")
	} else {
		fmt.Fprintf(sb, "Result: FAIL (%d errors)\n", report.ErrorCount())
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
