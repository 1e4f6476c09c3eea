package notify

import (
	"context"
	"log/slog"

	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/stream"
)

// Publisher receives a copy of every badge change and notification.
// *stream.Broker implements it.
type Publisher interface {
	Publish(evt stream.Event)
}

// MultiPublisher forwards every event to each publisher in order.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(evt stream.Event) {
	for _, p := range m {
		p.Publish(evt)
	}
}

// Dispatcher routes side effects to the configured sinks. Sink failures are
// logged and never returned: a lost notification must not change a verdict.
type Dispatcher struct {
	notifications NotificationSink
	badges        BadgeSink
	publisher     Publisher
	logger        *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNotificationSink sets the notification sink.
func WithNotificationSink(s NotificationSink) DispatcherOption {
	return func(d *Dispatcher) { d.notifications = s }
}

// WithBadgeSink sets the badge sink.
func WithBadgeSink(s BadgeSink) DispatcherOption {
	return func(d *Dispatcher) { d.badges = s }
}

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher. Without options notifications go to
// the log and badges to a fresh BadgeBoard.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifications == nil {
		d.notifications = NewLogSink(d.logger)
	}
	if d.badges == nil {
		d.badges = NewBadgeBoard()
	}
	return d
}

// SetBadge updates the tab's badge.
func (d *Dispatcher) SetBadge(ctx context.Context, tab model.TabID, status model.BadgeStatus) {
	if err := d.badges.Set(ctx, tab, status); err != nil {
		d.logger.Warn("failed to set badge", "tab", tab, "badge", status.String(), "error", err)
	}
	d.publish(stream.FeedBadge, tab, map[string]string{
		"status": status.String(),
		"text":   status.Text(),
		"color":  status.Color(),
	})
}

// Notify shows n unless notifications are disabled in settings.
func (d *Dispatcher) Notify(ctx context.Context, settings model.Settings, n Notification) {
	if !settings.ShowNotifications {
		d.logger.Debug("notification suppressed by settings", "tab", n.TabID, "title", n.Title)
		return
	}
	n.Title = TitlePrefix + n.Title
	if err := d.notifications.Show(ctx, n); err != nil {
		d.logger.Warn("failed to deliver notification", "tab", n.TabID, "error", err)
	}
	d.publish(stream.FeedNotification, n.TabID, n)
}

// PublishVerdict sends a verdict to stream subscribers.
func (d *Dispatcher) PublishVerdict(tab model.TabID, v model.Verdict) {
	d.publish(stream.FeedVerdict, tab, v)
}

// PublishDetection sends a new detected-phishing entry to stream subscribers.
func (d *Dispatcher) PublishDetection(tab model.TabID, det model.Detection) {
	d.publish(stream.FeedDetection, tab, det)
}

func (d *Dispatcher) publish(feed string, tab model.TabID, payload any) {
	if d.publisher == nil {
		return
	}
	d.publisher.Publish(stream.NewEvent(feed, string(tab), payload))
}
