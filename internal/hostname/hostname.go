// Package hostname normalizes hosts and compares them at the registrable
// domain level.
package hostname

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrMalformedURL is returned when a URL cannot be parsed or has no host.
	ErrMalformedURL = errors.New("malformed url")

	// ErrInternalScheme is returned for browser-internal pages that are
	// never tracked (about:, chrome:, extension pages, file:, ...).
	ErrInternalScheme = errors.New("internal scheme")
)

// internalSchemes are skipped by every observer.
var internalSchemes = map[string]struct{}{
	"about":            {},
	"chrome":           {},
	"chrome-extension": {},
	"moz-extension":    {},
	"edge":             {},
	"devtools":         {},
	"file":             {},
	"data":             {},
	"blob":             {},
	"javascript":       {},
	"view-source":      {},
	"chrome-search":    {},
	"chrome-untrusted": {},
}

// specialSuffixes are two-label public suffixes under which the registrable
// domain has three labels.
var specialSuffixes = []string{
	"co.uk", "com.br", "com.mx", "com.ar", "com.co", "co.jp", "co.kr", "com.au",
}

// Normalize lowercases host, converts IDNs to punycode and strips a leading
// "www.". Empty input yields the empty string.
func Normalize(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}
	host = strings.ToLower(host)
	if ascii, err := idna.Punycode.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.TrimPrefix(host, "www.")
}

// IsInternal reports whether rawURL points at a browser-internal page.
func IsInternal(rawURL string) bool {
	scheme, _, ok := strings.Cut(rawURL, ":")
	if !ok {
		return false
	}
	_, internal := internalSchemes[strings.ToLower(scheme)]
	return internal
}

// FromURL extracts the normalized host from rawURL.
func FromURL(rawURL string) (string, error) {
	if IsInternal(rawURL) {
		return "", fmt.Errorf("%w: %s", ErrInternalScheme, rawURL)
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	host := Normalize(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrMalformedURL, rawURL)
	}
	return host, nil
}

// RegistrableDomain returns the last two labels of host, or the last three
// when host ends in one of the known two-label public suffixes.
func RegistrableDomain(host string) string {
	host = Normalize(host)
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	n := 2
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	for _, suffix := range specialSuffixes {
		if lastTwo == suffix {
			n = 3
			break
		}
	}
	if len(labels) <= n {
		return host
	}
	return strings.Join(labels[len(labels)-n:], ".")
}

// IsSameDomain reports whether a and b share a registrable domain.
// Empty hosts never match.
func IsSameDomain(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return RegistrableDomain(a) == RegistrableDomain(b)
}

// Matches reports whether host equals stored or is a subdomain of it.
func Matches(host, stored string) bool {
	host, stored = Normalize(host), Normalize(stored)
	if host == "" || stored == "" {
		return false
	}
	return host == stored || strings.HasSuffix(host, "."+stored)
}

// MatchesAny reports whether host matches any entry of list.
func MatchesAny(host string, list []string) bool {
	for _, stored := range list {
		if Matches(host, stored) {
			return true
		}
	}
	return false
}
