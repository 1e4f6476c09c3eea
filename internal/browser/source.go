package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/pageform"
)

// queueSize bounds the number of CDP events waiting for the engine.
const queueSize = 256

// historyTimeout bounds the Page.getNavigationHistory call made per commit.
const historyTimeout = 5 * time.Second

// Dispatcher receives translated events. *engine.Engine implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev engine.Event) error
}

// PasswordReporter receives password pages found in loaded tabs.
// *engine.Engine implements it.
type PasswordReporter interface {
	ReportPasswordFieldDetected(ctx context.Context, tab model.TabID, host, url, documentReferrer string) (model.Verdict, error)
}

// job runs on the source's worker goroutine. It may return an event to
// dispatch, or nil.
type job func(ctx context.Context) engine.Event

type tabSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	// failed is set when the CDP domains could not be enabled. The session
	// is kept until the target is destroyed so its context can be released.
	failed bool
}

// Source streams browser events from a remote Chromium into a Dispatcher.
//
// CDP listeners must not block, so every listener only enqueues a job. A
// single worker runs the jobs in order, which keeps commits ordered after
// the request and redirect events that precede them.
type Source struct {
	url        string
	dispatcher Dispatcher
	reporter   PasswordReporter
	translator *Translator
	logger     *slog.Logger

	queue chan job
	// enableTab enables the CDP domains of an attached tab.
	enableTab func(ctx context.Context) error

	mu   sync.Mutex
	tabs map[target.ID]tabSession
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithPasswordReporter scans every loaded page for password inputs and
// reports the pages that have one.
func WithPasswordReporter(r PasswordReporter) Option {
	return func(s *Source) {
		s.reporter = r
	}
}

// NewSource creates a Source for the DevTools endpoint at url
// (e.g. http://127.0.0.1:9222 or a ws:// browser URL).
func NewSource(url string, d Dispatcher, opts ...Option) *Source {
	s := &Source{
		url:        url,
		dispatcher: d,
		translator: NewTranslator(),
		logger:     slog.Default(),
		queue:      make(chan job, queueSize),
		enableTab:  enableDomains,
		tabs:       make(map[target.ID]tabSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects to the browser, attaches to every page target and forwards
// events until ctx is cancelled. It returns nil on cancellation.
func (s *Source) Run(ctx context.Context) error {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, s.url)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return fmt.Errorf("failed to connect to browser at %s: %w", s.url, err)
	}

	chromedp.ListenBrowser(browserCtx, s.browserListener(browserCtx))

	c := chromedp.FromContext(browserCtx)
	if err := target.SetDiscoverTargets(true).Do(cdp.WithExecutor(browserCtx, c.Browser)); err != nil {
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return fmt.Errorf("failed to enumerate targets: %w", err)
	}
	for _, t := range targets {
		if t.Type == targetTypePage {
			s.attach(browserCtx, t.TargetID)
		}
	}
	s.logger.Info("attached to browser", "url", s.url, "tabs", s.tabCount())

	defer s.forgetAll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.queue:
			ev := j(ctx)
			if ev == nil {
				continue
			}
			err := s.dispatcher.Dispatch(ctx, ev)
			if err != nil && !errors.Is(err, hostname.ErrMalformedURL) {
				s.logger.Debug("browser event rejected", "tab", ev.Tab(), "error", err)
			}
		}
	}
}

func (s *Source) enqueue(j job) {
	select {
	case s.queue <- j:
	default:
		s.logger.Warn("browser event queue full, dropping event")
	}
}

func (s *Source) enqueueEvent(ev engine.Event) {
	s.enqueue(func(context.Context) engine.Event { return ev })
}

func (s *Source) browserListener(browserCtx context.Context) func(any) {
	return func(ev any) {
		switch e := ev.(type) {
		case *target.EventTargetCreated:
			info := e.TargetInfo
			if info == nil || info.Type != targetTypePage {
				return
			}
			id := info.TargetID
			s.enqueue(func(context.Context) engine.Event {
				s.attach(browserCtx, id)
				return nil
			})
			if opened, ok := s.translator.TargetCreated(info); ok {
				s.enqueueEvent(opened)
			}

		case *target.EventTargetDestroyed:
			id := e.TargetID
			s.enqueue(func(context.Context) engine.Event {
				t, ok := s.forget(id)
				if !ok {
					return nil
				}
				// The target is gone, so cancelling cannot close a live tab.
				t.cancel()
				return s.translator.TargetDestroyed(string(id))
			})
		}
	}
}

func (s *Source) tabListener(tabCtx context.Context, tab string) func(any) {
	return func(ev any) {
		switch e := ev.(type) {
		case *page.EventFrameStartedLoading:
			if started, ok := s.translator.FrameStartedLoading(tab, e); ok {
				s.enqueueEvent(started)
			}

		case *network.EventRequestWillBeSent:
			if observed, ok := s.translator.RequestWillBeSent(tab, e); ok {
				s.enqueueEvent(observed)
			}

		case *page.EventFrameRequestedNavigation:
			s.translator.FrameRequestedNavigation(tab, e)

		case *page.EventFrameNavigated:
			if e.Frame == nil || e.Frame.ParentID != "" {
				return
			}
			url := e.Frame.URL
			s.enqueue(func(context.Context) engine.Event {
				return s.translator.Commit(tab, url, s.transitionType(tabCtx, tab))
			})

		case *page.EventLoadEventFired:
			if s.reporter == nil {
				return
			}
			s.enqueue(func(ctx context.Context) engine.Event {
				s.scanPasswordFields(ctx, tabCtx, tab)
				return nil
			})
		}
	}
}

// scanPasswordFields reads the rendered document of a tab and reports it
// when it contains a password input.
func (s *Source) scanPasswordFields(ctx, tabCtx context.Context, tab string) {
	runCtx, cancel := context.WithTimeout(tabCtx, historyTimeout)
	defer cancel()

	var outerHTML, location, referrer string
	err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.Evaluate(`document.referrer`, &referrer),
		chromedp.OuterHTML("html", &outerHTML, chromedp.ByQuery),
	)
	if err != nil {
		s.logger.Debug("failed to read document", "tab", tab, "error", err)
		return
	}

	doc, ok := ScanDocument(location, outerHTML)
	if !ok {
		return
	}
	host, err := hostname.FromURL(location)
	if err != nil {
		return
	}
	s.logger.Debug("password field detected", "tab", tab, "host", host, "title", doc.Title, "forms", len(doc.LoginForms()))
	if _, err := s.reporter.ReportPasswordFieldDetected(ctx, model.TabID(tab), host, location, referrer); err != nil {
		s.logger.Debug("password report rejected", "tab", tab, "error", err)
	}
}

// ScanDocument parses the outer HTML of a page at pageURL and reports
// whether it renders a password input. Browser-internal pages never match.
func ScanDocument(pageURL, outerHTML string) (*pageform.Result, bool) {
	if hostname.IsInternal(pageURL) {
		return nil, false
	}
	parser, err := pageform.NewParser(pageURL)
	if err != nil {
		return nil, false
	}
	result, err := parser.Parse(strings.NewReader(outerHTML))
	if err != nil || !result.HasPasswordField() {
		return nil, false
	}
	return result, true
}

// transitionType reads the current navigation history entry of the tab.
func (s *Source) transitionType(tabCtx context.Context, tab string) string {
	ctx, cancel := context.WithTimeout(tabCtx, historyTimeout)
	defer cancel()

	var transition string
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		index, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		transition = CurrentTransition(index, entries)
		return nil
	}))
	if err != nil {
		s.logger.Debug("failed to read navigation history", "tab", tab, "error", err)
		return ""
	}
	return transition
}

func (s *Source) attach(browserCtx context.Context, id target.ID) {
	s.mu.Lock()
	if _, ok := s.tabs[id]; ok {
		s.mu.Unlock()
		return
	}
	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(id))
	s.tabs[id] = tabSession{ctx: tabCtx, cancel: cancel}
	s.mu.Unlock()

	chromedp.ListenTarget(tabCtx, s.tabListener(tabCtx, string(id)))
	if err := s.enableTab(tabCtx); err != nil {
		s.logger.Warn("failed to attach to tab", "tab", id, "error", err)
		s.markFailed(id)
		return
	}
	s.logger.Debug("attached to tab", "tab", id)
}

func enableDomains(ctx context.Context) error {
	return chromedp.Run(ctx, network.Enable(), page.Enable())
}

// markFailed keeps the session of a tab that could not be enabled without
// cancelling it, since the target may already be attached and cancelling
// would close it. The context is cancelled once the target is destroyed.
func (s *Source) markFailed(id target.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tabs[id]; ok {
		t.failed = true
		s.tabs[id] = t
	}
}

// forget drops the session of a target. The session context is not
// cancelled: cancelling a chromedp tab context closes the tab in the browser.
func (s *Source) forget(id target.ID) (tabSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tabs[id]
	delete(s.tabs, id)
	return t, ok
}

func (s *Source) forgetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.tabs)
}

func (s *Source) tabCount() int {
	return len(s.Tabs())
}

// Tabs returns the IDs of attached tabs.
func (s *Source) Tabs() []model.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TabID, 0, len(s.tabs))
	for id, t := range s.tabs {
		if t.failed {
			continue
		}
		out = append(out, model.TabID(id))
	}
	return out
}
