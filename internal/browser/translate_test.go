package browser

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"

	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/model"
)

func TestTranslator_TargetCreated(t *testing.T) {
	t.Parallel()

	tr := NewTranslator()

	tests := []struct {
		name string
		info *target.Info
		want bool
	}{
		{
			name: "page opened from another tab",
			info: &target.Info{TargetID: "T2", Type: "page", OpenerID: "T1", URL: "https://evil.example/"},
			want: true,
		},
		{
			name: "page without opener",
			info: &target.Info{TargetID: "T3", Type: "page", URL: "https://example.com/"},
			want: false,
		},
		{
			name: "service worker",
			info: &target.Info{TargetID: "W1", Type: "service_worker", OpenerID: "T1"},
			want: false,
		},
		{
			name: "nil info",
			info: nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, ok := tr.TargetCreated(tt.info)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if ev.TabID != "T2" || ev.SourceTabID != "T1" || ev.URL != "https://evil.example/" {
				t.Errorf("unexpected event: %+v", ev)
			}
		})
	}
}

func TestTranslator_RequestWillBeSent(t *testing.T) {
	t.Parallel()

	t.Run("main frame document", func(t *testing.T) {
		t.Parallel()

		tr := NewTranslator()
		ev, ok := tr.RequestWillBeSent("T1", &network.EventRequestWillBeSent{
			Type:    network.ResourceTypeDocument,
			FrameID: cdp.FrameID("T1"),
			Request: &network.Request{
				URL:     "https://evil.example/",
				Headers: network.Headers{"Referer": "https://mail.google.com/", "Upgrade-Insecure-Requests": 1},
			},
		})
		if !ok {
			t.Fatal("expected an event")
		}
		if ev.ResourceType != engine.ResourceMainFrame || ev.URL != "https://evil.example/" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Headers["Referer"] != "https://mail.google.com/" || ev.Headers["Upgrade-Insecure-Requests"] != "1" {
			t.Errorf("unexpected headers: %v", ev.Headers)
		}
		if commit := tr.Commit("T1", "https://evil.example/", "link"); len(commit.Qualifiers) != 0 {
			t.Errorf("no redirect expected, got %v", commit.Qualifiers)
		}
	})

	t.Run("sub-frame document", func(t *testing.T) {
		t.Parallel()

		tr := NewTranslator()
		ev, ok := tr.RequestWillBeSent("T1", &network.EventRequestWillBeSent{
			Type:    network.ResourceTypeDocument,
			FrameID: cdp.FrameID("F9"),
			Request: &network.Request{URL: "https://ads.example/"},
		})
		if !ok || ev.ResourceType != resourceSubFrame {
			t.Errorf("unexpected event: %+v, %v", ev, ok)
		}
	})

	t.Run("scripts are ignored", func(t *testing.T) {
		t.Parallel()

		tr := NewTranslator()
		_, ok := tr.RequestWillBeSent("T1", &network.EventRequestWillBeSent{
			Type:    network.ResourceTypeScript,
			FrameID: cdp.FrameID("T1"),
			Request: &network.Request{URL: "https://cdn.example/app.js"},
		})
		if ok {
			t.Error("script requests must not produce events")
		}
	})

	t.Run("redirect response marks server redirect", func(t *testing.T) {
		t.Parallel()

		tr := NewTranslator()
		tr.RequestWillBeSent("T1", &network.EventRequestWillBeSent{
			Type:             network.ResourceTypeDocument,
			FrameID:          cdp.FrameID("T1"),
			Request:          &network.Request{URL: "https://hop.example/"},
			RedirectResponse: &network.Response{Status: 302},
		})
		commit := tr.Commit("T1", "https://hop.example/", "link")
		if !slices.Equal(commit.Qualifiers, []string{model.QualifierServerRedirect}) {
			t.Fatalf("qualifiers = %v", commit.Qualifiers)
		}
		kind, redirect := model.ClassifyTransition(commit.TransitionType, commit.Qualifiers)
		if kind != model.TransitionLink || !redirect {
			t.Errorf("classified as %v redirect=%v", kind, redirect)
		}
		if again := tr.Commit("T1", "https://hop.example/next", "link"); len(again.Qualifiers) != 0 {
			t.Error("redirect qualifier must be consumed by one commit")
		}
	})
}

func TestTranslator_FrameRequestedNavigation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		frame  string
		reason string
		want   bool
	}{
		{name: "meta refresh", frame: "T1", reason: "metaTagRefresh", want: true},
		{name: "refresh header", frame: "T1", reason: "httpHeaderRefresh", want: true},
		{name: "script navigation", frame: "T1", reason: "scriptInitiated", want: false},
		{name: "sub-frame refresh", frame: "F2", reason: "metaTagRefresh", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := NewTranslator()
			tr.FrameRequestedNavigation("T1", &page.EventFrameRequestedNavigation{
				FrameID: cdp.FrameID(tt.frame),
				Reason:  page.ClientNavigationReason(tt.reason),
			})
			commit := tr.Commit("T1", "https://example.com/", "other")
			got := slices.Contains(commit.Qualifiers, model.QualifierClientRedirect)
			if got != tt.want {
				t.Errorf("client redirect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslator_FrameStartedLoading(t *testing.T) {
	t.Parallel()

	tr := NewTranslator()
	if _, ok := tr.FrameStartedLoading("T1", &page.EventFrameStartedLoading{FrameID: "F3"}); ok {
		t.Error("sub-frame loads must be ignored")
	}
	ev, ok := tr.FrameStartedLoading("T1", &page.EventFrameStartedLoading{FrameID: "T1"})
	if !ok || ev.TabID != "T1" {
		t.Errorf("unexpected event: %+v, %v", ev, ok)
	}
}

func TestTranslator_TargetDestroyedClearsRedirect(t *testing.T) {
	t.Parallel()

	tr := NewTranslator()
	tr.FrameRequestedNavigation("T1", &page.EventFrameRequestedNavigation{FrameID: "T1", Reason: "metaTagRefresh"})
	if ev := tr.TargetDestroyed("T1"); ev.TabID != "T1" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if commit := tr.Commit("T1", "https://example.com/", "link"); len(commit.Qualifiers) != 0 {
		t.Errorf("qualifiers survived tab removal: %v", commit.Qualifiers)
	}
}

func TestCurrentTransition(t *testing.T) {
	t.Parallel()

	entries := []*page.NavigationEntry{
		{URL: "https://google.com/", TransitionType: page.TransitionType("typed")},
		{URL: "https://evil.example/", TransitionType: page.TransitionType("link")},
	}

	tests := []struct {
		index int64
		want  string
	}{
		{index: 0, want: "typed"},
		{index: 1, want: "link"},
		{index: 2, want: ""},
		{index: -1, want: ""},
	}
	for _, tt := range tests {
		if got := CurrentTransition(tt.index, entries); got != tt.want {
			t.Errorf("CurrentTransition(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

// recordingDispatcher collects dispatched events.
type recordingDispatcher struct {
	events chan engine.Event
}

func (r *recordingDispatcher) Dispatch(_ context.Context, ev engine.Event) error {
	r.events <- ev
	return nil
}

func TestSource_TabListenerOrdersEvents(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{events: make(chan engine.Event, 8)}
	s := NewSource("http://127.0.0.1:0", d)
	listener := s.tabListener(context.Background(), "T1")

	listener(&page.EventFrameStartedLoading{FrameID: "T1"})
	listener(&network.EventRequestWillBeSent{
		Type:    network.ResourceTypeDocument,
		FrameID: "T1",
		Request: &network.Request{URL: "https://evil.example/", Headers: network.Headers{"Referer": "https://google.com/"}},
	})

	ctx := context.Background()
	for _, want := range []string{"load", "headers"} {
		j := <-s.queue
		ev := j(ctx)
		switch want {
		case "load":
			if _, ok := ev.(engine.TabLoadStarted); !ok {
				t.Fatalf("first event = %T, want TabLoadStarted", ev)
			}
		case "headers":
			if _, ok := ev.(engine.RequestHeadersObserved); !ok {
				t.Fatalf("second event = %T, want RequestHeadersObserved", ev)
			}
		}
	}
	if len(s.queue) != 0 {
		t.Errorf("unexpected queued jobs: %d", len(s.queue))
	}
}

func TestSource_FailedAttachReleasedOnDestroy(t *testing.T) {
	t.Parallel()

	s := NewSource("http://127.0.0.1:0", &recordingDispatcher{events: make(chan engine.Event, 1)})
	var tabCtx context.Context
	s.enableTab = func(ctx context.Context) error {
		tabCtx = ctx
		return errors.New("Network.enable: session closed")
	}

	s.attach(context.Background(), "T1")
	if got := s.Tabs(); len(got) != 0 {
		t.Fatalf("Tabs() = %v, want none", got)
	}
	if tabCtx == nil {
		t.Fatal("enableTab was not called")
	}
	if err := tabCtx.Err(); err != nil {
		t.Fatalf("session cancelled while the target may still be open: %v", err)
	}

	s.browserListener(context.Background())(&target.EventTargetDestroyed{TargetID: "T1"})
	ev := (<-s.queue)(context.Background())
	if removed, ok := ev.(engine.TabRemoved); !ok || removed.TabID != "T1" {
		t.Fatalf("event = %#v, want TabRemoved for T1", ev)
	}
	if err := tabCtx.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("session context err = %v, want context.Canceled", err)
	}
}
