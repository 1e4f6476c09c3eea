package report

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/rtps/internal/model"
)

// Report is the detected-phishing log at a point in time.
type Report struct {
	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generatedAt"`

	// Detections are ordered oldest first.
	Detections []model.Detection `json:"detections"`

	// Hosts optionally carries the host lists the detections were made with.
	Hosts *model.HostLists `json:"hosts,omitempty"`
}

// detectionTypes is the display order of detection types.
var detectionTypes = []model.DetectionType{
	model.DetectionCrossDomainPassword,
	model.DetectionRedirectChain,
	model.DetectionUnsafeHost,
}

// NewReport creates a Report. A nil slice is replaced by an empty one so
// JSON output always carries an array.
func NewReport(detections []model.Detection, generatedAt time.Time) *Report {
	if detections == nil {
		detections = []model.Detection{}
	}
	return &Report{GeneratedAt: generatedAt, Detections: detections}
}

// CountByType returns how many detections each type has.
func (r *Report) CountByType() map[model.DetectionType]int {
	counts := make(map[model.DetectionType]int, len(detectionTypes))
	for _, d := range r.Detections {
		counts[d.Type]++
	}
	return counts
}

// DetectedHosts returns the distinct hosts with detections in first-seen order.
func (r *Report) DetectedHosts() []string {
	seen := make(map[string]bool, len(r.Detections))
	var hosts []string
	for _, d := range r.Detections {
		if !seen[d.Host] {
			seen[d.Host] = true
			hosts = append(hosts, d.Host)
		}
	}
	return hosts
}

var titleCaser = cases.Title(language.English)

// TypeLabel returns a display label such as "Cross Domain Password".
func TypeLabel(t model.DetectionType) string {
	return titleCaser.String(strings.ReplaceAll(string(t), "_", " "))
}

// chainText joins a redirect chain with arrows, or returns "-".
func chainText(chain []string) string {
	if len(chain) == 0 {
		return "-"
	}
	return strings.Join(chain, " → ")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
