package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/xmlmerge/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every merged product by name.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSources(&sb, report)
	w.writeProducts(&sb, report)
	w.writePublish(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          XMLMERGE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run:       %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if d := report.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:  %s\n", d.Round(1e6)))
	}

	switch {
	case report.Cancelled:
		sb.WriteString("Status:    CANCELLED\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:    FAILED - %s\n", report.ErrorMessage))
	case report.Published():
		sb.WriteString("Status:    Published\n")
	default:
		sb.WriteString("Status:    Incomplete\n")
	}

	sb.WriteString("\n")
}

// writeSources writes one line per source.
func (w *SimpleWriter) writeSources(sb *strings.Builder, report *model.RunReport) {
	writeSection(sb, fmt.Sprintf("SOURCES (%d of %d valid)", report.SucceededCount(), len(report.Sources)))

	for i := range report.Sources {
		s := &report.Sources[i]
		if s.OK() {
			sb.WriteString(fmt.Sprintf("  [OK]   %s (%d products)\n", s.URL, s.ProductCount))
			continue
		}
		sb.WriteString(fmt.Sprintf("  [FAIL] %s\n", s.URL))
		if s.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("         %s\n", s.ErrorMessage))
		}
	}
	sb.WriteString("\n")
}

// writeProducts writes the merged product count, and the names when verbose.
func (w *SimpleWriter) writeProducts(sb *strings.Builder, report *model.RunReport) {
	writeSection(sb, "PRODUCTS")

	sb.WriteString(fmt.Sprintf("  Merged: %d\n", report.ProductCount))
	if w.verbose {
		for i, name := range report.ProductNames {
			sb.WriteString(fmt.Sprintf("  %4d. %s\n", i+1, name))
		}
	}
	sb.WriteString("\n")
}

// writePublish writes the publish outcome.
func (w *SimpleWriter) writePublish(sb *strings.Builder, report *model.RunReport) {
	writeSection(sb, "PUBLISH")

	p := report.Publish
	if p == nil {
		sb.WriteString("  Not published\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("  Location: %s\n", p.Location))
	sb.WriteString(fmt.Sprintf("  Size:     %d bytes\n", p.Bytes))
	if w.verbose && p.Digest != "" {
		sb.WriteString(fmt.Sprintf("  SHA3-256: %s\n", p.Digest))
	}
	if p.DirectoryFallback {
		sb.WriteString("  Note:     remote directory not found, default directory used\n")
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
