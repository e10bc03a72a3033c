package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/anchorlint/anchorlint/internal/record"
)

// MarkdownWriter outputs reports in Markdown format, suitable for CI job
// summaries and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *record.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeGroups(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *record.Report) {
	md.H1("anchorlint Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.Site + "`"},
			{"Completed", report.CompletedAt.Format("2006-01-02 15:04:05 MST")},
			{"Result", w.resultText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) resultText(report *record.Report) string {
	if report.ErrorCount() == 0 {
		return "✅ PASS"
	}
	return "❌ FAIL (" + strconv.Itoa(report.ErrorCount()) + " errors)"
}

// writeSummary writes the crawl counter table and a result alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *record.Report) {
	md.H2("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Successful fetches", strconv.Itoa(report.Successes)},
			{"Redirects", strconv.Itoa(report.Redirects)},
			{"Disallowed", strconv.Itoa(report.Disallowed)},
			{"Ignored", strconv.Itoa(report.Ignored)},
			{"**Errors**", "**" + strconv.Itoa(report.ErrorCount()) + "**"},
		},
	})
	md.PlainText("")

	if report.ErrorCount() > 0 {
		md.Warningf("%d error(s) detected. The crawl exit code is non-zero.", report.ErrorCount())
	} else {
		md.Tip("All links, anchors, and titles check out.")
	}
	md.PlainText("")
}

// writeGroups writes one section per record kind, content failures first.
func (w *MarkdownWriter) writeGroups(md *markdown.Markdown, report *record.Report) {
	groups := report.Grouped()
	if len(groups) == 0 {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	for _, group := range groups {
		md.PlainText("### " + titleCase(group.Kind.String()) + " (" + strconv.Itoa(len(group.Records)) + ")")
		md.PlainText("")
		w.writeGroupTable(md, group.Records)
	}
}

// writeGroupTable writes a table of records for one kind.
func (w *MarkdownWriter) writeGroupTable(md *markdown.Markdown, records []record.Record) {
	rows := make([][]string, len(records))
	for i, rec := range records {
		status := "-"
		if rec.Status != 0 {
			status = strconv.Itoa(rec.Status)
		}
		detail := rec.Detail
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			"`" + rec.URL + "`",
			status,
			truncateString(detail, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by anchorlint*")
}

// titleCase turns a kind name like "broken-fragment" into "Broken Fragment".
func titleCase(kind string) string {
	words := strings.Split(kind, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
