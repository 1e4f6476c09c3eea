// Package api exposes the engine over HTTP. Browser extensions post events
// and password-field reports to it; the CLI and dashboards read host lists,
// detections and settings; /api/v1/stream pushes badges and verdicts over a
// WebSocket.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/database"
	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/stream"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Service is the engine surface the API needs. *engine.Engine implements it.
type Service interface {
	Dispatch(ctx context.Context, ev engine.Event) error
	ReportPasswordFieldDetected(ctx context.Context, tab model.TabID, host, url, documentReferrer string) (model.Verdict, error)

	QueryNavigationHistory(tab model.TabID) []model.NavigationEntry
	Badge(tab model.TabID) model.BadgeStatus
	QueryHostStatus(ctx context.Context, host string) (model.HostStatus, error)

	HostLists(ctx context.Context) (model.HostLists, error)
	AddHost(ctx context.Context, host string, safe bool) (model.HostLists, error)
	RemoveHost(ctx context.Context, host string) (model.HostLists, error)

	Detections(ctx context.Context) ([]model.Detection, error)
	ClearDetections(ctx context.Context) (engine.ClearResult, error)

	Settings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
}

// Option configures NewServer.
type Option func(*server)

type server struct {
	broker  *stream.Broker
	metrics http.Handler
	logger  *slog.Logger
}

// WithBroker mounts the WebSocket feed at /api/v1/stream.
func WithBroker(b *stream.Broker) Option {
	return func(s *server) {
		s.broker = b
	}
}

// WithMetrics mounts a Prometheus scrape handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// NewServer builds the HTTP handler.
func NewServer(svc Service, opts ...Option) http.Handler {
	s := &server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("rtps API", Version))

	registerTabHandlers(api, svc)
	registerHostHandlers(api, svc)
	registerDetectionHandlers(api, svc)
	registerSettingsHandlers(api, svc)
	registerEventHandlers(api, svc)

	if s.broker != nil {
		router.Get("/api/v1/stream", stream.WebSocketHandler(s.broker, s.logger))
	}
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics)
	}
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return router
}

// isClientError reports whether err was caused by the request itself.
func isClientError(err error) bool {
	return errors.Is(err, engine.ErrMissingTabContext) ||
		errors.Is(err, hostname.ErrMalformedURL) ||
		errors.Is(err, hostname.ErrInternalScheme) ||
		errors.Is(err, database.ErrEmptyHost)
}

// mapErr converts engine and storage errors to HTTP errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isClientError(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, engine.ErrInvalidSettings):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, classifier.ErrUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
