package model

import (
	"fmt"
	"strings"
)

// HostStatus is the classification of a host against the allow/deny lists.
// Exactly one of IsSafe, IsUnsafe and IsUnknown is true for a well-formed
// status; NewHostStatus enforces this.
type HostStatus struct {
	// Host is the normalized host that was classified.
	Host string `json:"host"`

	// IsSafe is true if the host or one of its parent domains is on the safe list.
	IsSafe bool `json:"isSafe"`

	// IsUnsafe is true if the host or one of its parent domains is on the unsafe list.
	IsUnsafe bool `json:"isUnsafe"`

	// IsUnknown is true if the host is on neither list.
	IsUnknown bool `json:"isUnknown"`
}

// NewHostStatus builds a HostStatus from list membership.
// A host that matches both lists is reported as unsafe.
func NewHostStatus(host string, safe, unsafe bool) HostStatus {
	if unsafe {
		safe = false
	}
	return HostStatus{
		Host:      host,
		IsSafe:    safe,
		IsUnsafe:  unsafe,
		IsUnknown: !safe && !unsafe,
	}
}

// UnknownHostStatus returns the status used when a host cannot be classified.
func UnknownHostStatus(host string) HostStatus {
	return NewHostStatus(host, false, false)
}

// VerdictStatus is the outcome category of a risk analysis.
type VerdictStatus int

const (
	// VerdictUnknown means no rule could attribute risk to the page.
	// It never triggers an alert.
	VerdictUnknown VerdictStatus = iota

	// VerdictSafe means the host is on the safe list.
	VerdictSafe

	// VerdictUnsafe means the host is on the unsafe list.
	VerdictUnsafe

	// VerdictPhishing means the navigation path matches a credential
	// harvesting pattern.
	VerdictPhishing
)

// String returns the wire name of the verdict status.
func (s VerdictStatus) String() string {
	switch s {
	case VerdictSafe:
		return "safe"
	case VerdictUnsafe:
		return "unsafe"
	case VerdictPhishing:
		return "phishing"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s VerdictStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *VerdictStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "safe":
		*s = VerdictSafe
	case "unsafe":
		*s = VerdictUnsafe
	case "phishing":
		*s = VerdictPhishing
	case "unknown", "":
		*s = VerdictUnknown
	default:
		return fmt.Errorf("unknown verdict status %q", string(text))
	}
	return nil
}

// BadgeStatus is the visual indicator shown for a tab.
type BadgeStatus int

const (
	// BadgeDefault is the neutral state set on page load start.
	BadgeDefault BadgeStatus = iota

	// BadgeSafe marks a tab whose host is trusted.
	BadgeSafe

	// BadgeWarning marks a tab that arrived from a trusted site at an unknown one.
	BadgeWarning

	// BadgeDanger marks a tab with an unsafe or phishing verdict.
	BadgeDanger
)

// String returns the wire name of the badge status.
func (b BadgeStatus) String() string {
	switch b {
	case BadgeSafe:
		return "safe"
	case BadgeWarning:
		return "warning"
	case BadgeDanger:
		return "danger"
	default:
		return "default"
	}
}

// Text returns the short badge label.
func (b BadgeStatus) Text() string {
	switch b {
	case BadgeWarning:
		return "!"
	case BadgeDanger:
		return "!!"
	default:
		return ""
	}
}

// Color returns the badge background color.
func (b BadgeStatus) Color() string {
	switch b {
	case BadgeSafe:
		return "#4CAF50"
	case BadgeWarning:
		return "#FF9800"
	case BadgeDanger:
		return "#F44336"
	default:
		return "#607D8B"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b BadgeStatus) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
