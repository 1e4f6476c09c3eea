package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/rtps/internal/api"
	"github.com/nao1215/rtps/internal/browser"
	"github.com/nao1215/rtps/internal/config"
	"github.com/nao1215/rtps/internal/database"
	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/log"
	"github.com/nao1215/rtps/internal/metrics"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/notify"
	"github.com/nao1215/rtps/internal/stream"
	"github.com/spf13/cobra"
)

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection engine and HTTP API",
		Long: `Serve runs the navigation engine behind an HTTP API.

When a DevTools endpoint is configured, serve attaches to every tab of that
browser and feeds its navigation events to the engine. Without one, events
are posted to /api/v1/events/* by an extension or a test rig.

Live verdicts and detections stream over a WebSocket at /api/v1/stream,
and Prometheus counters are served at /metrics.

Examples:
  # Serve on the default address
  rtps serve

  # Watch a local Chrome started with --remote-debugging-port=9222
  rtps serve --cdp http://127.0.0.1:9222

  # Publish alerts to ntfy
  rtps serve --ntfy https://ntfy.sh/my-alerts`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", "",
		fmt.Sprintf("Listen address (default %s)", config.DefaultListenAddress))
	cmd.Flags().String("cdp", "",
		"Chrome DevTools Protocol endpoint to watch (e.g., http://127.0.0.1:9222)")
	cmd.Flags().String("ntfy", "",
		"ntfy topic URL to publish alerts to")
	cmd.Flags().String("log-file", "",
		"Also write logs to this file with rotation")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := log.NewLogger(log.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

// applyServeFlags overrides cfg with the serve flags that were set.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"listen", &cfg.ListenAddress},
		{"cdp", &cfg.CDPURL},
		{"ntfy", &cfg.NtfyEndpoint},
		{"log-file", &cfg.LogFile},
	}
	for _, o := range overrides {
		v, err := cmd.Flags().GetString(o.flag)
		if err != nil {
			return err
		}
		if v != "" {
			*o.dst = v
		}
	}
	return nil
}

// app is a wired engine with its storage, transport and event source.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *database.Store
	engine *engine.Engine
	broker *stream.Broker
	server *http.Server
	source *browser.Source
}

// newApp opens storage and wires the engine, the API and, when configured,
// the browser event source.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := applyFileSeeds(ctx, store, cfg.File, logger); err != nil {
		_ = store.Close()
		return nil, err
	}

	sinks := notify.MultiSink{notify.NewLogSink(logger)}
	if cfg.NtfyEndpoint != "" {
		sinks = append(sinks, notify.NewNtfySink(cfg.NtfyEndpoint,
			notify.NewRetryingClient(logger, config.DefaultNtfyTimeout, config.DefaultNtfyRetries),
			notify.WithRateLimit(rate.NewLimiter(rate.Every(config.DefaultNtfyInterval), config.DefaultNtfyBurst)),
		))
	}

	broker := stream.NewBroker()
	stats := metrics.New(metrics.WithRuntimeCollectors())
	eng := engine.New(store,
		engine.WithLogger(logger),
		engine.WithHistoryLimit(cfg.HistoryLimit),
		engine.WithContextTTL(cfg.ContextTTL),
		engine.WithNotificationSink(sinks),
		engine.WithPublisher(notify.MultiPublisher{broker, stats}),
	)

	if cfg.File != nil && cfg.File.Settings != (model.SettingsPatch{}) {
		settings, err := eng.UpdateSettings(ctx, cfg.File.Settings)
		if err != nil {
			_ = eng.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to apply settings from config file: %w", err)
		}
		logger.Info("applied settings from config file",
			"enabled", settings.Enabled,
			"redirectLevels", settings.RedirectLevels,
			"language", settings.Language)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		engine: eng,
		broker: broker,
		server: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           api.NewServer(eng,
				api.WithBroker(broker),
				api.WithMetrics(stats.Handler()),
				api.WithLogger(logger),
			),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
	if cfg.CDPURL != "" {
		a.source = browser.NewSource(cfg.CDPURL, eng,
			browser.WithLogger(logger),
			browser.WithPasswordReporter(eng),
		)
	}
	return a, nil
}

// Run serves until ctx is cancelled or a component fails, then shuts the
// server down within the configured timeout.
func (a *app) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("listening", "address", a.cfg.ListenAddress)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.source != nil {
		g.Go(func() error {
			return a.source.Run(gctx)
		})
	}

	return g.Wait()
}

// Close releases the engine and the database.
func (a *app) Close() error {
	return errors.Join(a.engine.Close(), a.store.Close())
}
