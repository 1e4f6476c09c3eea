package browser

import (
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"

	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/model"
)

// targetTypePage is the CDP target type of a browser tab.
const targetTypePage = "page"

// resourceSubFrame is reported for document requests of child frames.
const resourceSubFrame = "sub_frame"

// Translator converts CDP events of one browser into engine events. It
// remembers redirects observed before a commit so the commit can carry the
// matching transition qualifier.
type Translator struct {
	mu        sync.Mutex
	redirects map[string]string
}

// NewTranslator creates an empty Translator.
func NewTranslator() *Translator {
	return &Translator{redirects: make(map[string]string)}
}

// TargetCreated returns a TabCreatedFromLink for page targets that have an
// opener.
func (t *Translator) TargetCreated(info *target.Info) (engine.TabCreatedFromLink, bool) {
	if info == nil || info.Type != targetTypePage || info.OpenerID == "" {
		return engine.TabCreatedFromLink{}, false
	}
	return engine.TabCreatedFromLink{
		SourceTabID: model.TabID(info.OpenerID),
		TabID:       model.TabID(info.TargetID),
		URL:         info.URL,
	}, true
}

// TargetDestroyed forgets pending redirects and returns the removal event.
func (t *Translator) TargetDestroyed(tab string) engine.TabRemoved {
	t.mu.Lock()
	delete(t.redirects, tab)
	t.mu.Unlock()
	return engine.TabRemoved{TabID: model.TabID(tab)}
}

// FrameStartedLoading returns a TabLoadStarted for the main frame.
func (t *Translator) FrameStartedLoading(tab string, ev *page.EventFrameStartedLoading) (engine.TabLoadStarted, bool) {
	if ev == nil || string(ev.FrameID) != tab {
		return engine.TabLoadStarted{}, false
	}
	return engine.TabLoadStarted{TabID: model.TabID(tab)}, true
}

// RequestWillBeSent returns the headers of document requests. A main-frame
// request that follows a redirect response marks the next commit as a server
// redirect.
func (t *Translator) RequestWillBeSent(tab string, ev *network.EventRequestWillBeSent) (engine.RequestHeadersObserved, bool) {
	if ev == nil || ev.Request == nil || ev.Type != network.ResourceTypeDocument {
		return engine.RequestHeadersObserved{}, false
	}
	resource := resourceSubFrame
	if string(ev.FrameID) == tab {
		resource = engine.ResourceMainFrame
		if ev.RedirectResponse != nil {
			t.noteRedirect(tab, model.QualifierServerRedirect)
		}
	}
	return engine.RequestHeadersObserved{
		TabID:        model.TabID(tab),
		ResourceType: resource,
		URL:          ev.Request.URL,
		Headers:      headerStrings(ev.Request.Headers),
	}, true
}

// FrameRequestedNavigation marks the next main-frame commit as a client
// redirect when the navigation comes from a refresh.
func (t *Translator) FrameRequestedNavigation(tab string, ev *page.EventFrameRequestedNavigation) {
	if ev == nil || string(ev.FrameID) != tab {
		return
	}
	switch string(ev.Reason) {
	case "metaTagRefresh", "httpHeaderRefresh":
		t.noteRedirect(tab, model.QualifierClientRedirect)
	}
}

// Commit builds the commit event for a main-frame navigation and consumes
// any pending redirect qualifier.
func (t *Translator) Commit(tab, url, transitionType string) engine.NavigationCommitted {
	t.mu.Lock()
	qualifier, ok := t.redirects[tab]
	delete(t.redirects, tab)
	t.mu.Unlock()

	ev := engine.NavigationCommitted{
		TabID:          model.TabID(tab),
		URL:            url,
		TransitionType: transitionType,
	}
	if ok {
		ev.Qualifiers = []string{qualifier}
	}
	return ev
}

func (t *Translator) noteRedirect(tab, qualifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redirects[tab] = qualifier
}

// CurrentTransition returns the transition type of the entry at index in a
// Page.getNavigationHistory result, or "" when there is none.
func CurrentTransition(index int64, entries []*page.NavigationEntry) string {
	if index < 0 || index >= int64(len(entries)) || entries[index] == nil {
		return ""
	}
	return string(entries[index].TransitionType)
}

func headerStrings(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
