package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/rtps/internal/gate"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// Event is a browser signal. The set of events is closed: every variant is
// declared in this file and handled by its own apply method.
type Event interface {
	// Tab returns the tab the event belongs to.
	Tab() model.TabID

	apply(ctx context.Context, e *Engine) error
}

// NavigationCommitted is a committed navigation in a frame of a tab.
type NavigationCommitted struct {
	TabID model.TabID `json:"tabId"`
	URL   string      `json:"url"`

	// FrameID is 0 for the main frame.
	FrameID int `json:"frameId"`

	// TransitionType is the browser transition type ("link", "typed", ...).
	TransitionType string `json:"transitionType"`

	// Qualifiers are the browser transition qualifiers.
	Qualifiers []string `json:"transitionQualifiers,omitempty"`
}

// TabCreatedFromLink is a new tab opened by a link in another tab.
type TabCreatedFromLink struct {
	SourceTabID model.TabID `json:"sourceTabId"`
	TabID       model.TabID `json:"tabId"`
	URL         string      `json:"url"`

	// SourceURL is the opener's URL when the event source knows it.
	// Otherwise the opener's latest history entry is used.
	SourceURL string `json:"sourceUrl,omitempty"`
}

// RequestHeadersObserved is an outgoing request seen by the browser.
type RequestHeadersObserved struct {
	TabID model.TabID `json:"tabId"`

	// ResourceType is "main_frame" for top-level document requests.
	ResourceType string            `json:"type"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers"`
}

// TabRemoved is a closed tab.
type TabRemoved struct {
	TabID model.TabID `json:"tabId"`
}

// TabLoadStarted is a tab that began loading a page.
type TabLoadStarted struct {
	TabID model.TabID `json:"tabId"`
}

// ResourceMainFrame is the resource type of top-level document requests.
const ResourceMainFrame = "main_frame"

// Tab implements Event.
func (ev NavigationCommitted) Tab() model.TabID { return ev.TabID }

// Tab implements Event.
func (ev TabCreatedFromLink) Tab() model.TabID { return ev.TabID }

// Tab implements Event.
func (ev RequestHeadersObserved) Tab() model.TabID { return ev.TabID }

// Tab implements Event.
func (ev TabRemoved) Tab() model.TabID { return ev.TabID }

// Tab implements Event.
func (ev TabLoadStarted) Tab() model.TabID { return ev.TabID }

// Dispatch applies a browser event.
//
// Events for browser-internal pages and sub-frames are ignored and return
// nil. Events without a tab return ErrMissingTabContext, and events with an
// unparsable URL return an error wrapping hostname.ErrMalformedURL; neither
// changes any state.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	if ev.Tab() == "" {
		return fmt.Errorf("%T: %w", ev, ErrMissingTabContext)
	}
	err := ev.apply(ctx, e)
	if errors.Is(err, hostname.ErrInternalScheme) {
		return nil
	}
	if err != nil {
		e.logger.Debug("event dropped", "event", fmt.Sprintf("%T", ev), "tab", ev.Tab(), "error", err)
	}
	return err
}

func (ev NavigationCommitted) apply(ctx context.Context, e *Engine) error {
	if ev.FrameID != 0 {
		return nil
	}
	host, err := hostname.FromURL(ev.URL)
	if err != nil {
		return err
	}

	kind, redirect := model.ClassifyTransition(ev.TransitionType, ev.Qualifiers)
	entry := model.NavigationEntry{
		Host:       host,
		RawURL:     ev.URL,
		Timestamp:  e.clock(),
		Transition: kind,
		IsRedirect: redirect,
	}

	if entry.IsTyped() {
		e.state.ResetLineage(ev.TabID, entry)
		e.effects.SetBadge(ctx, ev.TabID, model.BadgeDefault)
		e.logger.Debug("typed navigation reset lineage", "tab", ev.TabID, "host", host)
		return nil
	}

	previous, appended := e.state.RecordCommit(ev.TabID, entry)
	e.logger.Debug("navigation committed",
		"tab", ev.TabID,
		"host", host,
		"transition", kind.String(),
		"redirect", redirect,
		"appended", appended)

	settings, err := e.settings(ctx)
	if err != nil {
		return nil
	}
	e.gate.Check(ctx, gate.Navigation{
		TabID:           ev.TabID,
		DestinationHost: host,
		DestinationURL:  ev.URL,
		Transition:      kind,
		IsRedirect:      redirect,
		Previous:        previous,
		Settings:        settings,
		Now:             e.clock(),
	})
	return nil
}

func (ev TabCreatedFromLink) apply(_ context.Context, e *Engine) error {
	if ev.SourceTabID == "" {
		return ErrMissingTabContext
	}
	sourceURL := ev.SourceURL
	if sourceURL == "" {
		if tail, ok := e.state.Tail(ev.SourceTabID); ok {
			sourceURL = tail.RawURL
		}
	}
	if sourceURL == "" {
		return fmt.Errorf("opener %s: %w", ev.SourceTabID, ErrMissingTabContext)
	}
	sourceHost, err := hostname.FromURL(sourceURL)
	if err != nil {
		return err
	}

	now := e.clock()
	e.state.SetSourceLink(model.SourceLink{
		DestinationTabID: ev.TabID,
		SourceTabID:      ev.SourceTabID,
		SourceHost:       sourceHost,
		SourceURL:        sourceURL,
		Timestamp:        now,
	})
	e.state.Inherit(ev.TabID, ev.SourceTabID, model.NavigationEntry{
		Host:      sourceHost,
		RawURL:    sourceURL,
		Timestamp: now,
	})
	e.logger.Debug("tab opened from link", "tab", ev.TabID, "opener", ev.SourceTabID, "source", sourceHost)
	return nil
}

func (ev RequestHeadersObserved) apply(_ context.Context, e *Engine) error {
	if ev.ResourceType != ResourceMainFrame {
		return nil
	}
	referer := headerValue(ev.Headers, "Referer")
	if referer == "" {
		return nil
	}
	refererHost, err := hostname.FromURL(referer)
	if err != nil {
		return err
	}

	now := e.clock()
	e.state.SetReferer(model.RefererRecord{
		TabID:       ev.TabID,
		RefererHost: refererHost,
		RefererURL:  referer,
		ObservedURL: ev.URL,
		Timestamp:   now,
	})
	e.state.AppendReferer(ev.TabID, refererHost, referer, now)
	return nil
}

func (ev TabRemoved) apply(_ context.Context, e *Engine) error {
	e.state.Dispose(ev.TabID)
	e.badges.Forget(ev.TabID)
	return nil
}

// apply resets only the badge. A pending context must survive load start,
// which fires before the commit it belongs to.
func (ev TabLoadStarted) apply(ctx context.Context, e *Engine) error {
	e.effects.SetBadge(ctx, ev.TabID, model.BadgeDefault)
	return nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
