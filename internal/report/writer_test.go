package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/rtps/internal/model"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// createTestReport creates a report with sample data for testing.
func createTestReport() *Report {
	return NewReport([]model.Detection{
		{
			Host:      "login-paypal.example",
			URL:       "https://login-paypal.example/signin",
			Referrer:  "mail.google.com",
			Timestamp: testTime,
			Reason:    "Password page reached from mail.google.com",
			Type:      model.DetectionCrossDomainPassword,
		},
		{
			Host:          "evil.example",
			URL:           "https://evil.example/login",
			RedirectChain: []string{"www.google.com", "t.co", "evil.example"},
			Timestamp:     testTime.Add(time.Minute),
			Reason:        "Password page redirected from www.google.com",
			Type:          model.DetectionRedirectChain,
		},
		{
			Host:      "evil.example",
			URL:       "https://evil.example/account",
			Timestamp: testTime.Add(2 * time.Minute),
			Type:      model.DetectionUnsafeHost,
		},
	}, testTime.Add(time.Hour))
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestNewReport(t *testing.T) {
	t.Parallel()

	t.Run("nil detections become empty", func(t *testing.T) {
		t.Parallel()

		r := NewReport(nil, testTime)
		if r.Detections == nil || len(r.Detections) != 0 {
			t.Errorf("Detections = %v, want empty slice", r.Detections)
		}
	})

	t.Run("counts and hosts", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		counts := r.CountByType()
		if counts[model.DetectionCrossDomainPassword] != 1 ||
			counts[model.DetectionRedirectChain] != 1 ||
			counts[model.DetectionUnsafeHost] != 1 {
			t.Errorf("CountByType() = %v", counts)
		}
		hosts := r.DetectedHosts()
		if len(hosts) != 2 || hosts[0] != "login-paypal.example" || hosts[1] != "evil.example" {
			t.Errorf("DetectedHosts() = %v", hosts)
		}
	})
}

func TestTypeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   model.DetectionType
		want string
	}{
		{model.DetectionCrossDomainPassword, "Cross Domain Password"},
		{model.DetectionRedirectChain, "Redirect Chain"},
		{model.DetectionUnsafeHost, "Unsafe Host"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			t.Parallel()
			if got := TypeLabel(tt.in); got != tt.want {
				t.Errorf("TypeLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and detections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("n = %d, want %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"DETECTED PHISHING",
			"Detections: 3",
			"login-paypal.example",
			"Type: Redirect Chain",
			"URL:  https://evil.example/login",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Reason:") {
			t.Error("reasons should only be shown in verbose mode")
		}
	})

	t.Run("verbose adds reason and chain", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Reason:   Password page reached from mail.google.com") {
			t.Error("expected reason in verbose output")
		}
		if !strings.Contains(output, "www.google.com → t.co → evil.example") {
			t.Error("expected redirect chain in verbose output")
		}
		if !strings.Contains(output, "Referrer: mail.google.com") {
			t.Error("expected referrer in verbose output")
		}
	})

	t.Run("empty log", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(NewReport(nil, testTime)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No phishing detected.") {
			t.Error("expected empty message")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output is valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output should be a single line")
		}

		var decoded Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Detections) != 3 {
			t.Errorf("len(Detections) = %d, want 3", len(decoded.Detections))
		}
		if decoded.Detections[1].Type != model.DetectionRedirectChain {
			t.Errorf("Type = %q", decoded.Detections[1].Type)
		}
		if decoded.Hosts != nil {
			t.Error("hosts should be omitted when unset")
		}
	})

	t.Run("empty log encodes an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(NewReport(nil, testTime)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"detections":[]`) {
			t.Errorf("output = %s", buf.String())
		}
	})

	t.Run("includes host lists", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Hosts = &model.HostLists{SafeHosts: []string{"google.com"}, UnsafeHosts: []string{"evil.example"}}

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"safeHosts":["google.com"]`) {
			t.Errorf("output = %s", buf.String())
		}
	})
}

func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("custom prefix and tab", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">>", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), ">>\t") {
			t.Error("expected custom prefix and tab indentation in output")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"detections\"") {
			t.Error("expected 2-space indentation in output")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Detected Phishing",
			"## Detections",
			"```mermaid",
			"Detections by Type",
			"Cross Domain Password",
			"`login-paypal.example`",
			"[!WARNING]",
			"Password page redirected from www.google.com",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty log", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewReport(nil, testTime)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No phishing detected.") {
			t.Error("expected empty message")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("empty log should not render a chart")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf1.Len()+buf2.Len() {
			t.Errorf("n = %d, want %d", n, buf1.Len()+buf2.Len())
		}
		if strings.HasPrefix(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.HasPrefix(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(errWriter{}), NewJSONWriter(&buf))
		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not run after an error")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
