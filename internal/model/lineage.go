package model

import "time"

// NavigationMethod describes, in user-facing words, how a cross-domain
// navigation happened. It is substituted into verdict reasons and
// notification text ("You clicked a link from ...").
type NavigationMethod string

const (
	// MethodLinkClick is used when the navigation came from a link click.
	MethodLinkClick NavigationMethod = "clicked a link"

	// MethodRedirect is used when the navigation was a redirect.
	MethodRedirect NavigationMethod = "was redirected"

	// MethodNavigated is the generic fallback.
	MethodNavigated NavigationMethod = "navigated"
)

// MethodFor derives the navigation method from a transition.
func MethodFor(kind TransitionKind, isRedirect bool) NavigationMethod {
	switch {
	case kind == TransitionLink:
		return MethodLinkClick
	case isRedirect || kind == TransitionRedirect:
		return MethodRedirect
	default:
		return MethodNavigated
	}
}

// SourceLink records that a tab was opened by a link click in another tab.
// There is at most one per destination tab; the most recent opener wins.
type SourceLink struct {
	DestinationTabID TabID     `json:"destinationTabId"`
	SourceTabID      TabID     `json:"sourceTabId"`
	SourceHost       string    `json:"sourceHost"`
	SourceURL        string    `json:"sourceUrl"`
	Timestamp        time.Time `json:"timestamp"`
}

// RefererRecord is the most recent HTTP Referer seen on a main-frame request
// for a tab.
type RefererRecord struct {
	TabID       TabID     `json:"tabId"`
	RefererHost string    `json:"refererHost"`
	RefererURL  string    `json:"refererUrl"`
	ObservedURL string    `json:"observedUrl"`
	Timestamp   time.Time `json:"timestamp"`
}

// DefaultContextTTL is how long a CrossDomainContext stays valid.
const DefaultContextTTL = 10 * time.Minute

// CrossDomainContext is the pending risk context stored when a tab moves
// from a trusted site to an unknown one. It is consumed when a password
// field appears on the destination.
type CrossDomainContext struct {
	TabID           TabID            `json:"tabId"`
	SourceHost      string           `json:"sourceHost"`
	DestinationHost string           `json:"destinationHost"`
	Method          NavigationMethod `json:"navigationMethod"`
	DestinationURL  string           `json:"destinationUrl"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Expired reports whether the context is no longer valid at now.
// A context is valid while its age is strictly less than ttl.
func (c CrossDomainContext) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) >= ttl
}
