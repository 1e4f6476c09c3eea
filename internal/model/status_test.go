package model

import (
	"encoding/json"
	"testing"
)

// TestNewHostStatus tests that exactly one flag is set and unsafe wins.
func TestNewHostStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		safe, unsafe bool
		wantSafe     bool
		wantUnsafe   bool
		wantUnknown  bool
	}{
		{"safe", true, false, true, false, false},
		{"unsafe", false, true, false, true, false},
		{"both lists", true, true, false, true, false},
		{"neither", false, false, false, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewHostStatus("example.com", tc.safe, tc.unsafe)
			if s.IsSafe != tc.wantSafe || s.IsUnsafe != tc.wantUnsafe || s.IsUnknown != tc.wantUnknown {
				t.Errorf("got %+v", s)
			}
		})
	}
}

// TestVerdictStatusText tests text round trips through JSON.
func TestVerdictStatusText(t *testing.T) {
	t.Parallel()

	v := Verdict{Status: VerdictPhishing, Host: "evil.test"}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got struct {
		Status VerdictStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != VerdictPhishing {
		t.Errorf("got %v, want phishing", got.Status)
	}

	var bad VerdictStatus
	if err := bad.UnmarshalText([]byte("nope")); err == nil {
		t.Error("expected error for unknown status")
	}
}

// TestBadgeStatus tests badge text and names.
func TestBadgeStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		badge BadgeStatus
		name  string
		text  string
	}{
		{BadgeDefault, "default", ""},
		{BadgeSafe, "safe", ""},
		{BadgeWarning, "warning", "!"},
		{BadgeDanger, "danger", "!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if tc.badge.String() != tc.name {
				t.Errorf("String() = %q, want %q", tc.badge.String(), tc.name)
			}
			if tc.badge.Text() != tc.text {
				t.Errorf("Text() = %q, want %q", tc.badge.Text(), tc.text)
			}
		})
	}
}
