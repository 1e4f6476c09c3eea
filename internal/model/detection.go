package model

import "time"

// DetectionType records which rule produced a detection.
type DetectionType string

const (
	// DetectionCrossDomainPassword comes from a pending cross-domain context.
	DetectionCrossDomainPassword DetectionType = "cross_domain_password"

	// DetectionRedirectChain comes from historical chain analysis.
	DetectionRedirectChain DetectionType = "redirect_chain"

	// DetectionUnsafeHost comes from a direct unsafe-list match.
	DetectionUnsafeHost DetectionType = "unsafe_host"
)

// Detection is one entry in the detected-phishing log.
// Entries are unique by URL.
type Detection struct {
	Host          string        `json:"host"`
	URL           string        `json:"url"`
	Referrer      string        `json:"referrer,omitempty"`
	RedirectChain []string      `json:"redirectChain,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Reason        string        `json:"reason,omitempty"`
	Type          DetectionType `json:"type"`
}

// NewDetection builds a log entry from an alerting verdict.
func NewDetection(v Verdict, url string, typ DetectionType, now time.Time) Detection {
	return Detection{
		Host:          v.Host,
		URL:           url,
		Referrer:      v.SourceHost,
		RedirectChain: v.RedirectChain,
		Timestamp:     now,
		Reason:        v.Reason,
		Type:          typ,
	}
}

// HostLists is the pair of persisted allow/deny lists.
type HostLists struct {
	SafeHosts   []string `json:"safeHosts"`
	UnsafeHosts []string `json:"unsafeHosts"`
}
