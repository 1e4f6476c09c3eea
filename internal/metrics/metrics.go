// Package metrics exposes Prometheus counters derived from the engine's
// event stream. A *Metrics is a notify.Publisher: it sits next to the
// WebSocket broker and counts every verdict, detection, notification and
// badge change the engine emits.
package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/rtps/internal/stream"
)

const namespace = "rtps"

// Metrics holds the rtps collectors and the registry they live in.
//
// Design decision: Each Metrics owns its own registry instead of using the
// global default. Tests and multiple engines in one process can then create
// independent instances without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	Verdicts      *prometheus.CounterVec
	Detections    *prometheus.CounterVec
	Notifications prometheus.Counter
	BadgeChanges  *prometheus.CounterVec
	Events        *prometheus.CounterVec
}

// Option configures New.
type Option func(*Metrics)

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Metrics) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates the collectors on a fresh registry.
func New(opts ...Option) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Password-field verdicts by status",
			},
			[]string{"status"},
		),
		Detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detections_total",
				Help:      "Newly logged phishing detections by type",
			},
			[]string{"type"},
		),
		Notifications: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications shown to the user",
			},
		),
		BadgeChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "badge_changes_total",
				Help:      "Tab badge updates by status",
			},
			[]string{"status"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_events_total",
				Help:      "Events published to stream subscribers by feed",
			},
			[]string{"feed"},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// labelled is the subset of verdict, badge and detection payloads the
// counters are keyed on.
type labelled struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Publish implements notify.Publisher.
func (m *Metrics) Publish(evt stream.Event) {
	m.Events.WithLabelValues(evt.Feed).Inc()

	var p labelled
	if len(evt.Payload) > 0 {
		// Undecodable payloads still count under an empty label.
		_ = json.Unmarshal(evt.Payload, &p)
	}

	switch evt.Feed {
	case stream.FeedVerdict:
		m.Verdicts.WithLabelValues(p.Status).Inc()
	case stream.FeedDetection:
		m.Detections.WithLabelValues(p.Type).Inc()
	case stream.FeedNotification:
		m.Notifications.Inc()
	case stream.FeedBadge:
		m.BadgeChanges.WithLabelValues(p.Status).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
