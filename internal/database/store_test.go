package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/rtps/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("first open: %v", err)
		}
		if err := s.AddHost(context.Background(), "example.com", true); err != nil {
			t.Fatalf("AddHost: %v", err)
		}
		_ = s.Close()

		s, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer s.Close()

		lists, err := s.HostLists(context.Background())
		if err != nil {
			t.Fatalf("HostLists: %v", err)
		}
		if !slices.Contains(lists.SafeHosts, "example.com") {
			t.Errorf("safe hosts = %v", lists.SafeHosts)
		}
	})
}

func TestEnsureSeeded(t *testing.T) {
	t.Parallel()

	s := setupTestDB(t)
	ctx := context.Background()

	seeded, err := s.EnsureSeeded(ctx, []string{"google.com", "WWW.GitHub.com"})
	if err != nil || !seeded {
		t.Fatalf("first seed: seeded=%v err=%v", seeded, err)
	}

	// A removed default must not come back on the next start.
	if err := s.RemoveHost(ctx, "google.com"); err != nil {
		t.Fatalf("RemoveHost: %v", err)
	}
	seeded, err = s.EnsureSeeded(ctx, []string{"google.com"})
	if err != nil || seeded {
		t.Fatalf("second seed: seeded=%v err=%v", seeded, err)
	}

	lists, err := s.HostLists(ctx)
	if err != nil {
		t.Fatalf("HostLists: %v", err)
	}
	if !slices.Equal(lists.SafeHosts, []string{"github.com"}) {
		t.Errorf("safe hosts = %v, want [github.com]", lists.SafeHosts)
	}
}

func TestMergeSafeHosts(t *testing.T) {
	t.Parallel()

	s := setupTestDB(t)
	ctx := context.Background()

	if err := s.AddHost(ctx, "evil.test", false); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	added, err := s.MergeSafeHosts(ctx, []string{"evil.test", "google.com", "google.com", ""})
	if err != nil {
		t.Fatalf("MergeSafeHosts: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	lists, _ := s.HostLists(ctx)
	if !slices.Contains(lists.UnsafeHosts, "evil.test") {
		t.Error("merge must not move an unsafe host to the safe list")
	}
}

func TestAddHost(t *testing.T) {
	t.Parallel()

	s := setupTestDB(t)
	ctx := context.Background()

	if _, err := s.AddDetection(ctx, model.Detection{
		Host: "partner.test",
		URL:  "https://partner.test/login",
		Type: model.DetectionCrossDomainPassword,
	}); err != nil {
		t.Fatalf("AddDetection: %v", err)
	}

	if err := s.AddHost(ctx, "partner.test", false); err != nil {
		t.Fatalf("AddHost unsafe: %v", err)
	}
	if err := s.AddHost(ctx, "Partner.test", true); err != nil {
		t.Fatalf("AddHost safe: %v", err)
	}

	lists, err := s.HostLists(ctx)
	if err != nil {
		t.Fatalf("HostLists: %v", err)
	}
	if !slices.Equal(lists.SafeHosts, []string{"partner.test"}) || len(lists.UnsafeHosts) != 0 {
		t.Errorf("lists = %+v", lists)
	}

	detections, err := s.Detections(ctx)
	if err != nil {
		t.Fatalf("Detections: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("marking safe should remove detections, got %d", len(detections))
	}

	if err := s.AddHost(ctx, "  ", true); !errors.Is(err, ErrEmptyHost) {
		t.Errorf("err = %v, want ErrEmptyHost", err)
	}
}

func TestDetections(t *testing.T) {
	t.Parallel()

	s := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)

	d := model.Detection{
		Host:          "evil.test",
		URL:           "https://evil.test/login",
		Referrer:      "gmail.com",
		RedirectChain: []string{"gmail.com", "evil.test"},
		Timestamp:     now,
		Reason:        "test",
		Type:          model.DetectionCrossDomainPassword,
	}

	inserted, err := s.AddDetection(ctx, d)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.AddDetection(ctx, d)
	if err != nil || inserted {
		t.Fatalf("duplicate insert: inserted=%v err=%v", inserted, err)
	}

	got, err := s.Detections(ctx)
	if err != nil {
		t.Fatalf("Detections: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if !got[0].Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, now)
	}
	if !slices.Equal(got[0].RedirectChain, d.RedirectChain) {
		t.Errorf("chain = %v", got[0].RedirectChain)
	}
	if got[0].Type != model.DetectionCrossDomainPassword {
		t.Errorf("type = %q", got[0].Type)
	}

	n, err := s.ClearDetections(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearDetections: n=%d err=%v", n, err)
	}
	got, _ = s.Detections(ctx)
	if len(got) != 0 {
		t.Errorf("log should be empty, got %d", len(got))
	}
}

func TestSettings(t *testing.T) {
	t.Parallel()

	s := setupTestDB(t)
	ctx := context.Background()

	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got != model.DefaultSettings() {
		t.Errorf("fresh settings = %+v, want defaults", got)
	}

	levels := 7
	lang := "ja"
	updated, err := s.UpdateSettings(ctx, model.SettingsPatch{RedirectLevels: &levels, Language: &lang})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.RedirectLevels != 7 || updated.Language != "ja" || !updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}

	got, _ = s.Settings(ctx)
	if got != updated {
		t.Errorf("reloaded = %+v, want %+v", got, updated)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		zero bool
	}{
		{"2025-01-02T03:04:05.123456789Z", false},
		{"2025-01-02T03:04:05Z", false},
		{"2025-01-02 03:04:05", false},
		{"not a time", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tc.in); got.IsZero() != tc.zero {
				t.Errorf("parseTimestamp(%q) = %v", tc.in, got)
			}
		})
	}
}
