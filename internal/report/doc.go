// Package report renders the detected-phishing log.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown for sharing and issue trackers
//
// Design decision: We separate report writing from the detection records
// (which are in the model package) so new output formats do not touch the
// stored data structures.
package report
