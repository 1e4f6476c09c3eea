package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Detected Phishing")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Detections", strconv.Itoa(len(report.Detections))},
			{"Hosts", strconv.Itoa(len(report.DetectedHosts()))},
		},
	})
	md.PlainText("")

	if len(report.Detections) == 0 {
		md.Tip("No phishing detected.")
		return len(md.String()), md.Build()
	}

	md.Warningf("%d password page(s) were flagged. Review them before trusting these sites.", len(report.Detections))
	md.PlainText("")

	w.writeTypeChart(md, report)
	w.writeDetections(md, report)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by rtps*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeTypeChart(md *markdown.Markdown, report *Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Detections by Type"),
		piechart.WithShowData(true),
	)
	counts := report.CountByType()
	for _, t := range detectionTypes {
		if counts[t] > 0 {
			chart.LabelAndIntValue(TypeLabel(t), uint64(counts[t]))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDetections(md *markdown.Markdown, report *Report) {
	md.H2("Detections")
	md.PlainText("")

	rows := make([][]string, len(report.Detections))
	for i, d := range report.Detections {
		rows[i] = []string{
			d.Timestamp.Format("2006-01-02 15:04:05"),
			"`" + d.Host + "`",
			TypeLabel(d.Type),
			truncateString(chainText(d.RedirectChain), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Detected", "Host", "Type", "Chain"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, d := range report.Detections {
		if d.Reason != "" {
			md.Details(d.Host, d.Reason)
		}
	}
	md.PlainText("")
}
