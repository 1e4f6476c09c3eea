package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/rtps/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".rtps"

// Environment variables that override the configuration file.
const (
	EnvListen       = "RTPS_LISTEN"
	EnvCDPURL       = "RTPS_CDP_URL"
	EnvNtfyEndpoint = "RTPS_NTFY_ENDPOINT"
	EnvDBDir        = "RTPS_DB_DIR"
	EnvLogFile      = "RTPS_LOG_FILE"
	EnvHistoryLimit = "RTPS_HISTORY_LIMIT"
	EnvContextTTL   = "RTPS_CONTEXT_TTL"
	EnvVerbose      = "RTPS_VERBOSE"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .rtps configuration file.
type File struct {
	// Settings are applied over the stored engine settings at startup.
	Settings model.SettingsPatch `yaml:"settings,omitempty"`

	// SafeHosts are merged into the safe list at startup.
	SafeHosts []string `yaml:"safeHosts,omitempty"`

	// UnsafeHosts are added to the unsafe list at startup.
	UnsafeHosts []string `yaml:"unsafeHosts,omitempty"`

	Server ServerSection `yaml:"server,omitempty"`
	CDP    CDPSection    `yaml:"cdp,omitempty"`
	Ntfy   NtfySection   `yaml:"ntfy,omitempty"`
	Log    LogSection    `yaml:"log,omitempty"`
	Engine EngineSection `yaml:"engine,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Listen          string        `yaml:"listen,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"`
}

// CDPSection configures the Chrome DevTools Protocol event source.
type CDPSection struct {
	URL string `yaml:"url,omitempty"`
}

// NtfySection configures ntfy notification delivery.
type NtfySection struct {
	Endpoint string `yaml:"endpoint,omitempty"`
}

// LogSection configures log output.
type LogSection struct {
	File string `yaml:"file,omitempty"`
}

// EngineSection tunes in-memory tab state.
type EngineSection struct {
	HistoryLimit int           `yaml:"historyLimit,omitempty"`
	ContextTTL   time.Duration `yaml:"contextTTL,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .rtps in the current directory
// 3. Look for .rtps in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// ApplyFile copies the non-empty values of f into c and keeps f for later
// use by the caller (settings patch, host seeds).
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if f.Server.Listen != "" {
		c.ListenAddress = f.Server.Listen
	}
	if f.Server.ShutdownTimeout > 0 {
		c.ShutdownTimeout = f.Server.ShutdownTimeout
	}
	if f.CDP.URL != "" {
		c.CDPURL = f.CDP.URL
	}
	if f.Ntfy.Endpoint != "" {
		c.NtfyEndpoint = f.Ntfy.Endpoint
	}
	if f.Log.File != "" {
		c.LogFile = f.Log.File
	}
	if f.Engine.HistoryLimit != 0 {
		c.HistoryLimit = f.Engine.HistoryLimit
	}
	if f.Engine.ContextTTL != 0 {
		c.ContextTTL = f.Engine.ContextTTL
	}
}

// ApplyEnv loads an optional .env file from the current directory and
// applies RTPS_* environment variables over c.
func (c *Config) ApplyEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	c.ListenAddress = getEnvOrDefault(EnvListen, c.ListenAddress)
	c.CDPURL = getEnvOrDefault(EnvCDPURL, c.CDPURL)
	c.NtfyEndpoint = getEnvOrDefault(EnvNtfyEndpoint, c.NtfyEndpoint)
	c.DBDir = getEnvOrDefault(EnvDBDir, c.DBDir)
	c.LogFile = getEnvOrDefault(EnvLogFile, c.LogFile)
	c.HistoryLimit = getEnvIntOrDefault(EnvHistoryLimit, c.HistoryLimit)
	c.ContextTTL = getEnvDurationOrDefault(EnvContextTTL, c.ContextTTL)
	c.Verbose = getEnvBoolOrDefault(EnvVerbose, c.Verbose)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
