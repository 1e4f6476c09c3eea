package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs human-readable text for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds the reason and redirect chain of every detection.
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
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                     DETECTED PHISHING\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Detections: %d\n\n", len(report.Detections))

	if len(report.Detections) == 0 {
		sb.WriteString("No phishing detected.\n")
		return w.output.Write([]byte(sb.String()))
	}

	counts := report.CountByType()
	for _, t := range detectionTypes {
		if counts[t] > 0 {
			fmt.Fprintf(&sb, "  %-24s %d\n", TypeLabel(t), counts[t])
		}
	}
	sb.WriteString("\n")

	for i, d := range report.Detections {
		fmt.Fprintf(&sb, "[%d] %s  %s\n", i+1, d.Timestamp.Format("2006-01-02 15:04:05"), d.Host)
		fmt.Fprintf(&sb, "    Type: %s\n", TypeLabel(d.Type))
		fmt.Fprintf(&sb, "    URL:  %s\n", d.URL)
		if w.verbose {
			if d.Referrer != "" {
				fmt.Fprintf(&sb, "    Referrer: %s\n", d.Referrer)
			}
			fmt.Fprintf(&sb, "    Chain:    %s\n", chainText(d.RedirectChain))
			if d.Reason != "" {
				fmt.Fprintf(&sb, "    Reason:   %s\n", d.Reason)
			}
		}
	}

	return w.output.Write([]byte(sb.String()))
}
