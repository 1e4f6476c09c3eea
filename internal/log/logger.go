package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the optional log file.
const (
	maxSizeMB  = 25
	maxBackups = 10
	maxAgeDays = 14
)

// Options configures NewLogger.
type Options struct {
	// Writer receives console output. Defaults to os.Stderr.
	Writer io.Writer
	// Verbose lowers the level from Info to Debug.
	Verbose bool
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
	// File, when set, also writes to a size-rotated log file.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds a sanitizing logger. The returned closer flushes and
// closes the rotating log file and must be called on shutdown.
func NewLogger(opts Options) (*slog.Logger, io.Closer, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, rotating)
		closer = rotating
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(h)), closer, nil
}

// NewSecureLogger creates a sanitizing text logger writing to w.
// Verbose selects Debug level; otherwise Warn, which keeps CLI output quiet.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
