// Package tabstate holds the per-tab navigation ledger and the ephemeral
// lineage signals (source links, referers, pending cross-domain contexts).
//
// All state is in memory. A single mutex guards every map so that the
// composite updates performed on a typed navigation (reset history, purge
// lineage) are observed atomically by concurrent readers. The lock is never
// held while calling out to classifiers or persistence.
package tabstate

import (
	"slices"
	"sync"
	"time"

	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// DefaultHistoryLimit is the maximum number of entries kept per tab.
const DefaultHistoryLimit = 10

// Store is the in-memory navigation ledger.
type Store struct {
	mu sync.Mutex

	historyLimit int
	contextTTL   time.Duration

	history  map[model.TabID][]model.NavigationEntry
	sources  map[model.TabID]model.SourceLink
	referers map[model.TabID]model.RefererRecord
	contexts map[model.TabID]model.CrossDomainContext
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryLimit sets the per-tab history cap. Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithContextTTL sets how long a pending cross-domain context stays valid.
func WithContextTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.contextTTL = ttl
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		historyLimit: DefaultHistoryLimit,
		contextTTL:   model.DefaultContextTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Clear()
	return s
}

// HistoryLimit returns the configured per-tab cap.
func (s *Store) HistoryLimit() int {
	return s.historyLimit
}

// ContextTTL returns the configured context lifetime.
func (s *Store) ContextTTL() time.Duration {
	return s.contextTTL
}

// Clear drops all state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = make(map[model.TabID][]model.NavigationEntry)
	s.sources = make(map[model.TabID]model.SourceLink)
	s.referers = make(map[model.TabID]model.RefererRecord)
	s.contexts = make(map[model.TabID]model.CrossDomainContext)
}

// RecordCommit appends entry to the tab's history and returns the entry that
// was at the tail before the call.
//
// The host is normalized first. If it equals the current tail host, the
// history is left untouched and appended is false. When the history exceeds
// the limit, the oldest entries are evicted.
func (s *Store) RecordCommit(tab model.TabID, entry model.NavigationEntry) (previous *model.NavigationEntry, appended bool) {
	entry.Host = hostname.Normalize(entry.Host)
	if entry.Host == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[tab]
	if len(h) > 0 {
		tail := h[len(h)-1]
		previous = &tail
		if tail.Host == entry.Host {
			return previous, false
		}
	}
	s.history[tab] = s.capped(append(h, entry))
	return previous, true
}

// ResetLineage replaces the tab's history with the single entry and purges
// its source link, referer record and pending context. It is used for typed
// navigations, which break any navigation chain.
func (s *Store) ResetLineage(tab model.TabID, entry model.NavigationEntry) {
	entry.Host = hostname.Normalize(entry.Host)

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Host == "" {
		delete(s.history, tab)
	} else {
		s.history[tab] = []model.NavigationEntry{entry}
	}
	delete(s.sources, tab)
	delete(s.referers, tab)
	delete(s.contexts, tab)
}

// HistoryOf returns a copy of the tab's history, oldest first.
func (s *Store) HistoryOf(tab model.TabID) []model.NavigationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.history[tab])
}

// Tail returns the most recent history entry for the tab.
func (s *Store) Tail(tab model.TabID) (model.NavigationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[tab]
	if len(h) == 0 {
		return model.NavigationEntry{}, false
	}
	return h[len(h)-1], true
}

// Dispose removes every record for the tab.
func (s *Store) Dispose(tab model.TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, tab)
	delete(s.sources, tab)
	delete(s.referers, tab)
	delete(s.contexts, tab)
}

// AppendReferer adds a synthetic referer entry to the tab's history unless
// the current tail already has that host.
func (s *Store) AppendReferer(tab model.TabID, host, rawURL string, at time.Time) bool {
	host = hostname.Normalize(host)
	if host == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[tab]
	if len(h) > 0 && h[len(h)-1].Host == host {
		return false
	}
	s.history[tab] = s.capped(append(h, model.NavigationEntry{
		Host:        host,
		RawURL:      rawURL,
		Timestamp:   at,
		Transition:  model.TransitionOther,
		FromReferer: true,
	}))
	return true
}

// Inherit seeds a new tab's history from its opener. When the opener has
// history it is copied; otherwise the fallback entry is used.
func (s *Store) Inherit(dest, src model.TabID, fallback model.NavigationEntry) {
	fallback.Host = hostname.Normalize(fallback.Host)

	s.mu.Lock()
	defer s.mu.Unlock()

	if h := s.history[src]; len(h) > 0 {
		s.history[dest] = slices.Clone(h)
		return
	}
	if fallback.Host != "" {
		s.history[dest] = []model.NavigationEntry{fallback}
	}
}

// SetSourceLink records the opener of dest. The most recent opener wins.
func (s *Store) SetSourceLink(link model.SourceLink) {
	link.SourceHost = hostname.Normalize(link.SourceHost)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources[link.DestinationTabID] = link
}

// SourceLink returns the opener recorded for tab.
func (s *Store) SourceLink(tab model.TabID) (model.SourceLink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.sources[tab]
	return l, ok
}

// SetReferer overwrites the tab's referer record.
func (s *Store) SetReferer(rec model.RefererRecord) {
	rec.RefererHost = hostname.Normalize(rec.RefererHost)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.referers[rec.TabID] = rec
}

// Referer returns the referer record for tab.
func (s *Store) Referer(tab model.TabID) (model.RefererRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.referers[tab]
	return r, ok
}

// PutContext stores a pending cross-domain context, replacing any previous one.
func (s *Store) PutContext(c model.CrossDomainContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts[c.TabID] = c
}

// PutContextIfCurrent stores c only while the tab's history still ends at
// c.DestinationHost, and reports whether it was stored. A tab that moved on
// keeps whatever context its newer navigation left.
func (s *Store) PutContextIfCurrent(c model.CrossDomainContext) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[c.TabID]
	if len(h) == 0 || h[len(h)-1].Host != hostname.Normalize(c.DestinationHost) {
		return false
	}
	s.contexts[c.TabID] = c
	return true
}

// Context returns the tab's pending context if it has not expired at now.
// Expired contexts are removed.
func (s *Store) Context(tab model.TabID, now time.Time) (model.CrossDomainContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.liveContext(tab, now)
}

// ClearContext removes the tab's pending context.
func (s *Store) ClearContext(tab model.TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contexts, tab)
}

// ConsumeContext removes and returns the tab's context when it is still valid
// and its destination host equals host. A context for another host is left
// in place.
func (s *Store) ConsumeContext(tab model.TabID, host string, now time.Time) (model.CrossDomainContext, bool) {
	host = hostname.Normalize(host)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveContext(tab, now)
	if !ok || c.DestinationHost != host {
		return model.CrossDomainContext{}, false
	}
	delete(s.contexts, tab)
	return c, true
}

// Tabs returns the IDs of all tabs with recorded history.
func (s *Store) Tabs() []model.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs := make([]model.TabID, 0, len(s.history))
	for id := range s.history {
		tabs = append(tabs, id)
	}
	slices.Sort(tabs)
	return tabs
}

func (s *Store) liveContext(tab model.TabID, now time.Time) (model.CrossDomainContext, bool) {
	c, ok := s.contexts[tab]
	if !ok {
		return model.CrossDomainContext{}, false
	}
	if c.Expired(now, s.contextTTL) {
		delete(s.contexts, tab)
		return model.CrossDomainContext{}, false
	}
	return c, true
}

// capped trims h to the history limit, keeping the newest entries.
func (s *Store) capped(h []model.NavigationEntry) []model.NavigationEntry {
	if over := len(h) - s.historyLimit; over > 0 {
		return slices.Clone(h[over:])
	}
	return h
}
