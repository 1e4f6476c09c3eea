package model

import (
	"slices"
	"strings"
	"time"
)

// TabID identifies a browser tab. Extension tab IDs are integers and CDP
// target IDs are opaque strings, so both are carried as strings.
type TabID string

// TransitionKind describes how the user arrived at a page.
type TransitionKind int

const (
	// TransitionOther covers reloads, bookmarks, generated and start-page loads.
	TransitionOther TransitionKind = iota

	// TransitionTyped is a URL entered in the address bar.
	TransitionTyped

	// TransitionLink is a link click.
	TransitionLink

	// TransitionRedirect is a navigation whose only known cause is a redirect.
	TransitionRedirect

	// TransitionForm is a form submission.
	TransitionForm
)

// String returns the wire name of the transition kind.
func (k TransitionKind) String() string {
	switch k {
	case TransitionTyped:
		return "typed"
	case TransitionLink:
		return "link"
	case TransitionRedirect:
		return "redirect"
	case TransitionForm:
		return "form"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TransitionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Browser transition qualifiers.
const (
	QualifierClientRedirect = "client_redirect"
	QualifierServerRedirect = "server_redirect"
	QualifierForwardBack    = "forward_back"
	QualifierFromAddressBar = "from_address_bar"
)

// ClassifyTransition maps a browser transition type and its qualifiers to a
// TransitionKind and a redirect flag.
//
// A navigation counts as typed when the type is "typed" (or the CDP spelling
// "address_bar") or when it carries the from_address_bar qualifier. The
// redirect flag is independent of the kind: a link click that was then
// server-redirected is TransitionLink with isRedirect set.
func ClassifyTransition(transitionType string, qualifiers []string) (TransitionKind, bool) {
	isRedirect := slices.Contains(qualifiers, QualifierClientRedirect) ||
		slices.Contains(qualifiers, QualifierServerRedirect)

	switch strings.ToLower(transitionType) {
	case "typed", "address_bar":
		return TransitionTyped, false
	}
	if slices.Contains(qualifiers, QualifierFromAddressBar) {
		return TransitionTyped, false
	}

	switch strings.ToLower(transitionType) {
	case "link":
		return TransitionLink, isRedirect
	case "form_submit":
		return TransitionForm, isRedirect
	}
	if isRedirect {
		return TransitionRedirect, true
	}
	return TransitionOther, false
}

// NavigationEntry is one committed navigation in a tab's history.
type NavigationEntry struct {
	// Host is normalized: lowercase, without a leading "www.".
	Host string `json:"host"`

	// RawURL is the URL as reported by the browser.
	RawURL string `json:"url"`

	// Timestamp is when the entry was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Transition is how the user arrived at this entry.
	Transition TransitionKind `json:"transitionKind"`

	// IsRedirect is true when the navigation carried a redirect qualifier.
	IsRedirect bool `json:"isRedirect"`

	// FromReferer is true when the entry was synthesized from an HTTP Referer
	// header rather than a committed navigation.
	FromReferer bool `json:"fromReferer"`
}

// IsTyped reports whether the user typed this navigation directly.
func (e NavigationEntry) IsTyped() bool {
	return e.Transition == TransitionTyped
}

// IsLink reports whether this navigation came from a link click.
func (e NavigationEntry) IsLink() bool {
	return e.Transition == TransitionLink
}
