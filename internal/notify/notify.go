// Package notify delivers user-facing alerts and tab badge changes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nao1215/rtps/internal/model"
)

// TitlePrefix is prepended to every notification title.
const TitlePrefix = "RTPS: "

// Priority is the urgency of a notification.
type Priority int

const (
	// PriorityDefault is used for informational notifications.
	PriorityDefault Priority = iota
	// PriorityHigh is used for phishing verdicts.
	PriorityHigh
	// PriorityUrgent is used for navigation to a known unsafe site.
	PriorityUrgent
)

// String returns the ntfy priority name.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "default"
	}
}

// Notification is a message shown to the user.
type Notification struct {
	TabID    model.TabID `json:"tabId,omitempty"`
	Host     string      `json:"host,omitempty"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	Priority Priority    `json:"-"`
}

// NotificationSink shows notifications to the user.
type NotificationSink interface {
	Show(ctx context.Context, n Notification) error
}

// BadgeSink sets the visual status of a tab.
type BadgeSink interface {
	Set(ctx context.Context, tab model.TabID, status model.BadgeStatus) error
}

// ErrRateLimited is returned by NtfySink when a notification is dropped
// because the configured rate was exceeded.
var ErrRateLimited = errors.New("ntfy notification rate limit exceeded")

// NtfySink posts notifications to an ntfy topic URL.
type NtfySink struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NtfyOption configures an NtfySink.
type NtfyOption func(*NtfySink)

// WithRateLimit drops notifications beyond limiter's rate. A redirect loop
// on a phishing page would otherwise flood the topic.
func WithRateLimit(limiter *rate.Limiter) NtfyOption {
	return func(s *NtfySink) { s.limiter = limiter }
}

// NewNtfySink creates a sink posting to endpoint. A nil client uses
// http.DefaultClient. Without WithRateLimit the sink is unlimited.
func NewNtfySink(endpoint string, client *http.Client, opts ...NtfyOption) *NtfySink {
	if client == nil {
		client = http.DefaultClient
	}
	s := &NtfySink{endpoint: endpoint, client: client}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return s
}

// Show implements NotificationSink.
func (s *NtfySink) Show(ctx context.Context, n Notification) error {
	if !s.limiter.Allow() {
		return ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(n.Message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", n.Title)
	req.Header.Set("Priority", n.Priority.String())
	if n.Priority >= PriorityHigh {
		req.Header.Set("Tags", "warning")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}

// LogSink writes notifications to a logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Show implements NotificationSink.
func (s *LogSink) Show(ctx context.Context, n Notification) error {
	s.logger.WarnContext(ctx, n.Title,
		"message", n.Message,
		"tab", n.TabID,
		"host", n.Host,
		"priority", n.Priority.String())
	return nil
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []NotificationSink

// Show implements NotificationSink.
func (m MultiSink) Show(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Show(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
