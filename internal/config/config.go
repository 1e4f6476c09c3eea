package config

import (
	"net"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "rtps"

	// DefaultListenAddress binds the API to loopback only. The API accepts
	// browser events and list changes, so it must not be reachable from
	// other machines unless the user asks for it.
	DefaultListenAddress = "127.0.0.1:8787"

	// DefaultHistoryLimit is the number of navigation entries kept per tab.
	DefaultHistoryLimit = 10

	// DefaultContextTTL is how long a pending cross-domain context stays valid.
	DefaultContextTTL = 10 * time.Minute

	// DefaultShutdownTimeout bounds graceful HTTP shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultNtfyTimeout bounds a single notification POST.
	DefaultNtfyTimeout = 5 * time.Second

	// DefaultNtfyRetries is how many times a failed POST is retried.
	DefaultNtfyRetries = 2

	// DefaultNtfyBurst and DefaultNtfyInterval cap ntfy delivery at a burst
	// of five, then one notification per interval.
	DefaultNtfyBurst    = 5
	DefaultNtfyInterval = 12 * time.Second
)

// Config holds all runtime options for rtps.
// This struct is populated from defaults, the optional config file,
// environment variables and CLI flags, in that order of precedence.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The YAML file uses sections; ApplyFile flattens them.
type Config struct {
	// ListenAddress is the "host:port" the HTTP API listens on.
	ListenAddress string

	// CDPURL is the DevTools endpoint of a running Chromium
	// (e.g. http://127.0.0.1:9222). Empty disables the CDP event source.
	CDPURL string

	// NtfyEndpoint is an ntfy topic URL notifications are posted to.
	// Empty disables ntfy delivery; notifications are still logged.
	NtfyEndpoint string

	// DBDir is the directory holding the SQLite database.
	// Defaults to XDG data directory (~/.local/share/rtps on Linux).
	DBDir string

	// LogFile is an optional path for a rotating log file.
	LogFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .rtps in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// HistoryLimit is the per-tab navigation history cap.
	HistoryLimit int

	// ContextTTL is the lifetime of a pending cross-domain context.
	ContextTTL time.Duration

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout time.Duration

	// File is the loaded configuration file, or nil.
	File *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero.
func NewConfig() *Config {
	return &Config{
		ListenAddress:   DefaultListenAddress,
		DBDir:           XDGDataDir(),
		HistoryLimit:    DefaultHistoryLimit,
		ContextTTL:      DefaultContextTTL,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// XDGDataDir returns the XDG data directory for rtps.
// On Linux: ~/.local/share/rtps
// On macOS: ~/Library/Application Support/rtps
// On Windows: %LOCALAPPDATA%\rtps
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for rtps.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for rtps, used for log files.
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return ErrInvalidListenAddress
	}

	if c.HistoryLimit < 1 {
		return ErrInvalidHistoryLimit
	}

	if c.ContextTTL <= 0 {
		return ErrInvalidContextTTL
	}

	if c.CDPURL != "" && !hasScheme(c.CDPURL, "http", "https", "ws", "wss") {
		return ErrInvalidCDPURL
	}

	if c.NtfyEndpoint != "" && !hasScheme(c.NtfyEndpoint, "http", "https") {
		return ErrInvalidNtfyEndpoint
	}

	if c.File != nil {
		if err := ValidatePatch(c.File.Settings); err != nil {
			return err
		}
	}

	return nil
}

func hasScheme(raw string, schemes ...string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return true
		}
	}
	return false
}
