package model

// Verdict is the result of analyzing a page that shows a password field.
type Verdict struct {
	Status           VerdictStatus    `json:"status"`
	Host             string           `json:"host"`
	Alert            bool             `json:"alert"`
	HighlightFields  bool             `json:"highlightFields"`
	SourceHost       string           `json:"sourceHost,omitempty"`
	RedirectChain    []string         `json:"redirectChain,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	NavigationMethod NavigationMethod `json:"navigationMethod,omitempty"`
}

// UnknownVerdict is the no-alert outcome, also used when analysis degrades.
func UnknownVerdict(host string) Verdict {
	return Verdict{Status: VerdictUnknown, Host: host}
}

// SafeVerdict is returned for hosts on the safe list.
func SafeVerdict(host string) Verdict {
	return Verdict{Status: VerdictSafe, Host: host}
}

// UnsafeVerdict is returned for hosts on the unsafe list.
func UnsafeVerdict(host string) Verdict {
	return Verdict{Status: VerdictUnsafe, Host: host, Alert: true, HighlightFields: true}
}

// IsAlerting reports whether the verdict must be logged and surfaced.
func (v Verdict) IsAlerting() bool {
	return v.Status == VerdictPhishing || v.Status == VerdictUnsafe
}
