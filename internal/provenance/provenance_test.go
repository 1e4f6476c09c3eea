package provenance

import (
	"testing"

	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/tabstate"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		referer    string
		previous   string
		opener     string
		dest       string
		wantHost   string
		wantSource Source
		wantOK     bool
	}{
		{
			name:       "referer wins",
			referer:    "google.com",
			previous:   "news.test",
			opener:     "github.com",
			dest:       "evil.test",
			wantHost:   "google.com",
			wantSource: SourceReferer,
			wantOK:     true,
		},
		{
			name:       "same-domain referer falls through to history",
			referer:    "login.evil.test",
			previous:   "news.test",
			dest:       "evil.test",
			wantHost:   "news.test",
			wantSource: SourceHistory,
			wantOK:     true,
		},
		{
			name:       "opener used last",
			previous:   "evil.test",
			opener:     "mail.google.com",
			dest:       "evil.test",
			wantHost:   "mail.google.com",
			wantSource: SourceOpener,
			wantOK:     true,
		},
		{
			name:     "all same domain",
			referer:  "a.google.com",
			previous: "b.google.com",
			opener:   "google.com",
			dest:     "accounts.google.com",
			wantOK:   false,
		},
		{
			name:   "no signals",
			dest:   "evil.test",
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := tabstate.NewStore()
			if tc.referer != "" {
				store.SetReferer(model.RefererRecord{TabID: "1", RefererHost: tc.referer})
			}
			if tc.opener != "" {
				store.SetSourceLink(model.SourceLink{DestinationTabID: "1", SourceHost: tc.opener})
			}
			var prev *model.NavigationEntry
			if tc.previous != "" {
				prev = &model.NavigationEntry{Host: tc.previous}
			}

			got, ok := NewResolver(store).Resolve("1", tc.dest, prev)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if got.Host != tc.wantHost || got.Source != tc.wantSource {
				t.Errorf("got %+v (%s), want %s via %s", got, got.Source, tc.wantHost, tc.wantSource)
			}
		})
	}
}
