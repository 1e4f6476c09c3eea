package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for rtps.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rtps",
		Short: "Real-time cross-domain phishing detection",
		Long: `rtps tracks how each browser tab arrived at its current page and warns when
a password form appears on a site reached from a trusted site by a link,
redirect or new tab.

Navigation events come from a Chrome DevTools Protocol endpoint or from the
HTTP API. Host lists, settings and the detected-phishing log are stored in
SQLite under the XDG data directory.

Examples:
  # Watch a browser started with --remote-debugging-port=9222
  rtps serve --cdp http://127.0.0.1:9222

  # Ask how a host is classified
  rtps check login.example.com`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .rtps in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHostsCmd())
	cmd.AddCommand(NewDetectionsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
