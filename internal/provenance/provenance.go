// Package provenance decides which host a tab "came from" when it commits a
// navigation to a new host.
package provenance

import (
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// Source identifies which signal produced a provenance.
type Source int

const (
	// SourceReferer means the HTTP Referer of the main-frame request.
	SourceReferer Source = iota + 1

	// SourceHistory means the tab's previous history entry.
	SourceHistory

	// SourceOpener means the tab that opened this one.
	SourceOpener
)

// String returns the name of the signal.
func (s Source) String() string {
	switch s {
	case SourceReferer:
		return "referer"
	case SourceHistory:
		return "history"
	case SourceOpener:
		return "opener"
	default:
		return "none"
	}
}

// Provenance is the resolved origin of a navigation.
type Provenance struct {
	Host   string
	Source Source
}

// Lineage is the read side of the tab state store that resolution needs.
type Lineage interface {
	Referer(tab model.TabID) (model.RefererRecord, bool)
	SourceLink(tab model.TabID) (model.SourceLink, bool)
}

// Resolver resolves provenance from the lineage signals of a tab.
type Resolver struct {
	lineage Lineage
}

// NewResolver creates a Resolver reading from lineage.
func NewResolver(lineage Lineage) *Resolver {
	return &Resolver{lineage: lineage}
}

// Resolve returns the first candidate, in priority order referer, previous
// history entry, opener, whose host is not in the same registrable domain as
// destHost. previous is the tab's tail before the current commit, or nil.
//
// Design decision: a same-domain candidate is skipped rather than ending the
// search. A login redirect inside google.com must not hide that the user
// originally came from a different site via the opener.
func (r *Resolver) Resolve(tab model.TabID, destHost string, previous *model.NavigationEntry) (Provenance, bool) {
	destHost = hostname.Normalize(destHost)
	if destHost == "" {
		return Provenance{}, false
	}

	crosses := func(h string) bool {
		return h != "" && !hostname.IsSameDomain(h, destHost)
	}

	if rec, ok := r.lineage.Referer(tab); ok && crosses(rec.RefererHost) {
		return Provenance{Host: rec.RefererHost, Source: SourceReferer}, true
	}
	if previous != nil && crosses(previous.Host) {
		return Provenance{Host: previous.Host, Source: SourceHistory}, true
	}
	if link, ok := r.lineage.SourceLink(tab); ok && crosses(link.SourceHost) {
		return Provenance{Host: link.SourceHost, Source: SourceOpener}, true
	}
	return Provenance{}, false
}
