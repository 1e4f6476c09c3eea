package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/rtps/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/rtps.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .rtps config with host seeds and endpoints",
		Long: `Init writes a starter configuration for "rtps serve".

The file holds the engine settings applied at startup (detection on/off,
notifications, how many history entries chain analysis inspects, alert
language), safe and unsafe host seeds merged into the SQLite host lists,
the listen address of the HTTP API, and the Chrome DevTools and ntfy
endpoints. The endpoints are left commented out, so a fresh config only
serves the API until a browser or alert topic is configured.

Every value can be overridden by an RTPS_* environment variable or a flag.

Examples:
  # Create .rtps in current directory
  rtps init

  # Create config file at a specific path
  rtps init -o myconfig.yaml

  # Force overwrite existing file
  rtps init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/rtps.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Safe and unsafe host seeds")
	fmt.Fprintln(out, "  - The browser DevTools endpoint to watch")
	fmt.Fprintln(out, "  - ntfy alert delivery")

	return nil
}
