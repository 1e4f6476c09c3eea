package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/config"
	"github.com/nao1215/rtps/internal/database"
	"github.com/nao1215/rtps/internal/log"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getStringFlag looks a string flag up on cmd and then on the root command.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// loadConfig builds a Config from defaults, the configuration file, the
// environment and the global flags, in that order of precedence.
//
// If the user explicitly specified a config file path, a missing file is an
// error. Otherwise a missing file is silently ignored.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = getStringFlag(cmd, "config")

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyEnv()

	if dbDir := getStringFlag(cmd, "db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}
	return cfg, nil
}

// cliLogger is the logger used by the short-lived subcommands.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

// openStore opens the database and seeds the default safe list on first use.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	seeded, err := store.EnsureSeeded(ctx, classifier.DefaultSafeHosts)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed safe hosts: %w", err)
	}
	if seeded {
		logger.Info("seeded default safe hosts", "count", len(classifier.DefaultSafeHosts))
	}
	logger.Debug("database opened", "path", store.Path())
	return store, nil
}

// applyFileSeeds merges the host lists of the configuration file into store.
func applyFileSeeds(ctx context.Context, store *database.Store, f *config.File, logger *slog.Logger) error {
	if f == nil {
		return nil
	}
	if len(f.SafeHosts) > 0 {
		added, err := store.MergeSafeHosts(ctx, f.SafeHosts)
		if err != nil {
			return fmt.Errorf("failed to merge safe hosts: %w", err)
		}
		logger.Info("merged safe hosts from config file", "added", added)
	}
	for _, host := range f.UnsafeHosts {
		if err := store.AddHost(ctx, host, false); err != nil {
			return fmt.Errorf("failed to add unsafe host %q: %w", host, err)
		}
	}
	return nil
}
