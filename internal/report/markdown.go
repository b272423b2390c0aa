package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/xmlmerge/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, built with
// nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSources(md, report)
	w.writeProducts(md, report)
	w.writePublish(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run table and an outcome alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("xmlmerge Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Sources", fmt.Sprintf("%d of %d valid", report.SucceededCount(), len(report.Sources))},
			{"Products", strconv.Itoa(report.ProductCount)},
			{"Status", report.Status()},
		},
	})
	md.PlainText("")

	switch {
	case report.Cancelled:
		md.Warningf("The run was cancelled: %s", report.ErrorMessage)
	case report.ErrorMessage != "":
		md.Cautionf("The run failed: %s", report.ErrorMessage)
	case report.FailedCount() > 0:
		md.Importantf("%d source(s) could not be fetched and were skipped.", report.FailedCount())
	case report.Published():
		md.Tip("All sources were merged and the catalog was published.")
	default:
		md.Note("The catalog was not published.")
	}
	md.PlainText("")
}

// writeSources writes the source table and the product distribution chart.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, len(report.Sources))
	for i := range report.Sources {
		s := &report.Sources[i]
		result := "ok"
		if !s.OK() {
			result = s.FailureKind
			if result == "" {
				result = "failed"
			}
			if s.ErrorMessage != "" {
				result += ": " + truncateString(s.ErrorMessage, 60)
			}
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.URL,
			result,
			strconv.Itoa(s.ProductCount),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Result", "Products"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.ProductCount > 0 {
		w.writePieChart(md, report)
	}
}

// writePieChart writes a mermaid pie chart of products per source.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Products per Source"),
		piechart.WithShowData(true),
	)

	for i := range report.Sources {
		s := &report.Sources[i]
		if s.ProductCount > 0 {
			chart.LabelAndIntValue(fmt.Sprintf("Source %d", i+1), uint64(s.ProductCount))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeProducts writes the merged product names.
func (w *MarkdownWriter) writeProducts(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Products")
	md.PlainText("")

	if len(report.ProductNames) == 0 {
		md.PlainText("No products merged.")
		md.PlainText("")
		return
	}

	md.Details(fmt.Sprintf("%d merged products", len(report.ProductNames)), productList(report.ProductNames))
	md.PlainText("")
}

// writePublish writes the publish outcome.
func (w *MarkdownWriter) writePublish(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Publish")
	md.PlainText("")

	p := report.Publish
	if p == nil {
		md.PlainText("Not published.")
		md.PlainText("")
		return
	}

	rows := [][]string{
		{"Destination", p.Kind},
		{"Location", "`" + p.Location + "`"},
		{"Size", strconv.FormatInt(p.Bytes, 10) + " bytes"},
		{"SHA3-256", "`" + p.Digest + "`"},
	}
	if p.DirectoryFallback {
		rows = append(rows, []string{"Directory", "not found, default directory used"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [xmlmerge](https://github.com/nao1215/xmlmerge)*")
}

// productList renders names as a numbered plain-text list.
func productList(names []string) string {
	var sb strings.Builder
	for i, n := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n)
	}
	return sb.String()
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
