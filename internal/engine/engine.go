// Package engine is the process-wide navigation risk engine. It owns the tab
// state store and wires browser events and user requests to the cross-domain
// gate, the risk analyzer and the side-effect sinks.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/gate"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/notify"
	"github.com/nao1215/rtps/internal/provenance"
	"github.com/nao1215/rtps/internal/risk"
	"github.com/nao1215/rtps/internal/tabstate"
)

// ErrMissingTabContext is returned for events and requests that carry no
// tab ID. They have no effect.
var ErrMissingTabContext = errors.New("missing tab context")

// Persistence is the storage the engine needs. *database.Store implements it.
type Persistence interface {
	classifier.ListSource

	AddHost(ctx context.Context, host string, safe bool) error
	RemoveHost(ctx context.Context, host string) error

	AddDetection(ctx context.Context, d model.Detection) (bool, error)
	Detections(ctx context.Context) ([]model.Detection, error)
	ClearDetections(ctx context.Context) (int64, error)

	Settings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
}

// Engine correlates navigation signals per tab and produces verdicts.
type Engine struct {
	store    Persistence
	state    *tabstate.Store
	checker  classifier.Checker
	gate     *gate.Gate
	analyzer *risk.Analyzer
	effects  *notify.Dispatcher
	badges   *notify.BadgeBoard
	logger   *slog.Logger
	clock    func() time.Time

	historyLimit  int
	contextTTL    time.Duration
	notifications notify.NotificationSink
	publisher     notify.Publisher
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithNotificationSink sets where notifications are delivered.
// The default writes them to the log.
func WithNotificationSink(sink notify.NotificationSink) Option {
	return func(e *Engine) {
		e.notifications = sink
	}
}

// WithPublisher mirrors badges, notifications and verdicts to p.
func WithPublisher(p notify.Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithChecker replaces the list-backed host classifier.
func WithChecker(c classifier.Checker) Option {
	return func(e *Engine) {
		e.checker = c
	}
}

// WithHistoryLimit sets the per-tab history cap.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithContextTTL sets how long a pending cross-domain context lives.
func WithContextTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.contextTTL = ttl
	}
}

// New creates an Engine backed by store. The tab state starts empty.
func New(store Persistence, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		logger:       slog.Default(),
		clock:        time.Now,
		historyLimit: tabstate.DefaultHistoryLimit,
		contextTTL:   model.DefaultContextTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.checker == nil {
		e.checker = classifier.New(store)
	}

	e.state = tabstate.NewStore(
		tabstate.WithHistoryLimit(e.historyLimit),
		tabstate.WithContextTTL(e.contextTTL),
	)
	e.badges = notify.NewBadgeBoard()

	dispatcherOpts := []notify.DispatcherOption{
		notify.WithBadgeSink(e.badges),
		notify.WithLogger(e.logger),
	}
	if e.notifications != nil {
		dispatcherOpts = append(dispatcherOpts, notify.WithNotificationSink(e.notifications))
	}
	if e.publisher != nil {
		dispatcherOpts = append(dispatcherOpts, notify.WithPublisher(e.publisher))
	}
	e.effects = notify.NewDispatcher(dispatcherOpts...)

	e.gate = gate.New(provenance.NewResolver(e.state), e.checker, e.state, e.effects, e.logger)
	e.analyzer = risk.NewAnalyzer(e.checker, e.state, risk.WithLogger(e.logger))
	return e
}

// Reset drops all per-tab state and badges.
func (e *Engine) Reset() {
	e.state.Clear()
	e.badges.Clear()
}

// Close tears the engine down. Per-tab state is cleared; the persistence
// store is owned by the caller and is not closed.
func (e *Engine) Close() error {
	e.Reset()
	return nil
}

// Badge returns the tab's current badge.
func (e *Engine) Badge(tab model.TabID) model.BadgeStatus {
	return e.badges.Get(tab)
}

// Tabs returns the IDs of tabs with recorded history.
func (e *Engine) Tabs() []model.TabID {
	return e.state.Tabs()
}

// QueryNavigationHistory returns the tab's history, oldest first.
func (e *Engine) QueryNavigationHistory(tab model.TabID) []model.NavigationEntry {
	return e.state.HistoryOf(tab)
}

// QueryHostStatus classifies host. When the classifier is unavailable the
// status is unknown and the error wraps classifier.ErrUnavailable.
func (e *Engine) QueryHostStatus(ctx context.Context, host string) (model.HostStatus, error) {
	return e.checker.Check(ctx, host)
}

// settings reads the current settings from the store.
func (e *Engine) settings(ctx context.Context) (model.Settings, error) {
	s, err := e.store.Settings(ctx)
	if err != nil {
		e.logger.Warn("failed to read settings", "error", err)
		return model.DefaultSettings(), err
	}
	return s, nil
}
