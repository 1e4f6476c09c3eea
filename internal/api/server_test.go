package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/nao1215/rtps/internal/database"
	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/stream"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.AddHost(context.Background(), "google.com", true); err != nil {
		t.Fatalf("failed to seed host: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(db, engine.WithLogger(logger))
	t.Cleanup(func() { _ = eng.Close() })

	return NewServer(eng, WithLogger(logger), WithBroker(stream.NewBroker()))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestServer_PhishingFlow(t *testing.T) {
	t.Parallel()

	h := setupServer(t)

	for _, url := range []string{"https://www.google.com/search?q=bank", "https://evil.example/login"} {
		w := do(t, h, http.MethodPost, "/api/v1/events/commit", map[string]any{
			"tabId":          "12",
			"url":            url,
			"frameId":        0,
			"transitionType": "link",
		})
		if w.Code != http.StatusNoContent {
			t.Fatalf("commit %s: status %d: %s", url, w.Code, w.Body.String())
		}
	}

	w := do(t, h, http.MethodGet, "/api/v1/tabs/12/badge", nil)
	var badge badgeBody
	decode(t, w, &badge)
	if badge.Status != "warning" {
		t.Errorf("badge = %+v, want warning", badge)
	}

	w = do(t, h, http.MethodPost, "/api/v1/tabs/12/password-detected", map[string]any{
		"url": "https://evil.example/login",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("password-detected: status %d: %s", w.Code, w.Body.String())
	}
	var vb verdictBody
	decode(t, w, &vb)
	if vb.Verdict.Status != model.VerdictPhishing || vb.Verdict.SourceHost != "google.com" {
		t.Errorf("unexpected verdict: %+v", vb.Verdict)
	}

	w = do(t, h, http.MethodGet, "/api/v1/tabs/12/history", nil)
	var history struct {
		History []model.NavigationEntry `json:"history"`
	}
	decode(t, w, &history)
	if len(history.History) != 2 {
		t.Errorf("history length = %d, want 2", len(history.History))
	}

	w = do(t, h, http.MethodGet, "/api/v1/detections", nil)
	var detections struct {
		Detections []model.Detection `json:"detections"`
	}
	decode(t, w, &detections)
	if len(detections.Detections) != 1 || detections.Detections[0].Type != model.DetectionCrossDomainPassword {
		t.Fatalf("unexpected detections: %+v", detections.Detections)
	}

	w = do(t, h, http.MethodDelete, "/api/v1/detections", nil)
	var cleared engine.ClearResult
	decode(t, w, &cleared)
	if cleared.Removed != 1 {
		t.Errorf("removed = %d, want 1", cleared.Removed)
	}
}

func TestServer_Hosts(t *testing.T) {
	t.Parallel()

	h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/hosts/safe", map[string]string{"host": "WWW.Intranet.Example"})
	if w.Code != http.StatusOK {
		t.Fatalf("add safe host: status %d: %s", w.Code, w.Body.String())
	}
	var lists model.HostLists
	decode(t, w, &lists)
	if !slices.Contains(lists.SafeHosts, "intranet.example") {
		t.Errorf("safe hosts = %v", lists.SafeHosts)
	}

	w = do(t, h, http.MethodGet, "/api/v1/hosts/sso.intranet.example/status", nil)
	var status model.HostStatus
	decode(t, w, &status)
	if !status.IsSafe {
		t.Errorf("status = %+v, want safe", status)
	}

	w = do(t, h, http.MethodPost, "/api/v1/hosts/unsafe", map[string]string{"host": "evil.example"})
	if w.Code != http.StatusOK {
		t.Fatalf("add unsafe host: status %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodDelete, "/api/v1/hosts/intranet.example", nil)
	decode(t, w, &lists)
	if slices.Contains(lists.SafeHosts, "intranet.example") || !slices.Contains(lists.UnsafeHosts, "evil.example") {
		t.Errorf("unexpected lists after removal: %+v", lists)
	}

	w = do(t, h, http.MethodPost, "/api/v1/hosts/safe", map[string]string{"host": ""})
	if w.Code < 400 || w.Code >= 500 {
		t.Errorf("empty host: status %d, want 4xx", w.Code)
	}
}

func TestServer_Settings(t *testing.T) {
	t.Parallel()

	h := setupServer(t)

	w := do(t, h, http.MethodGet, "/api/v1/settings", nil)
	var s model.Settings
	decode(t, w, &s)
	if s != model.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", s)
	}

	w = do(t, h, http.MethodPatch, "/api/v1/settings", map[string]any{"language": "JA", "redirectLevels": 6})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &s)
	if s.Language != "ja" || s.RedirectLevels != 6 || !s.Enabled {
		t.Errorf("settings = %+v", s)
	}

	w = do(t, h, http.MethodPatch, "/api/v1/settings", map[string]any{"redirectLevels": 0})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid patch: status %d, want 422", w.Code)
	}
}

func TestServer_EventErrors(t *testing.T) {
	t.Parallel()

	h := setupServer(t)

	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{
			name: "empty tab",
			path: "/api/v1/events/commit",
			body: map[string]any{"tabId": "", "url": "https://example.com/"},
			want: http.StatusBadRequest,
		},
		{
			name: "malformed url",
			path: "/api/v1/events/commit",
			body: map[string]any{"tabId": "1", "url": "https://"},
			want: http.StatusBadRequest,
		},
		{
			name: "internal page is ignored",
			path: "/api/v1/events/commit",
			body: map[string]any{"tabId": "1", "url": "chrome://settings/"},
			want: http.StatusNoContent,
		},
		{
			name: "opener without history",
			path: "/api/v1/events/new-tab",
			body: map[string]any{"sourceTabId": "404", "tabId": "2"},
			want: http.StatusBadRequest,
		},
		{
			name: "referer header",
			path: "/api/v1/events/request-headers",
			body: map[string]any{"tabId": "3", "type": "main_frame", "url": "https://evil.example/", "headers": map[string]string{"Referer": "https://google.com/"}},
			want: http.StatusNoContent,
		},
		{
			name: "tab removed",
			path: "/api/v1/events/tab-removed",
			body: map[string]any{"tabId": "3"},
			want: http.StatusNoContent,
		},
		{
			name: "load start",
			path: "/api/v1/events/load-start",
			body: map[string]any{"tabId": "3"},
			want: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(t, h, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	w := do(t, setupServer(t), http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	w := do(t, setupServer(t), http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("without WithMetrics: status = %d, want 404", w.Code)
	}

	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "rtps_up 1\n")
	})
	h := NewServer(nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithMetrics(scrape))
	w = do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || w.Body.String() != "rtps_up 1\n" {
		t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
	}
}
