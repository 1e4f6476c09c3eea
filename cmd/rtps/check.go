package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <host-or-url>...",
		Short: "Classify hosts against the safe and unsafe lists",
		Long: `Check reports whether each host is safe, unsafe or unknown.

Arguments may be bare hosts or absolute URLs. A host matches a list entry
when it equals the entry or is a subdomain of it.

Examples:
  rtps check accounts.google.com
  rtps check https://login.example.net/signin --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheckCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := cliLogger(cmd, cfg)
	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	c := classifier.New(store)
	statuses := make([]model.HostStatus, 0, len(args))
	for _, arg := range args {
		host, err := hostArg(arg)
		if err != nil {
			return err
		}
		status, err := c.Check(cmd.Context(), host)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}
	for _, s := range statuses {
		fmt.Fprintf(out, "%-40s %s\n", s.Host, statusLabel(s))
	}
	return nil
}

// hostArg turns a CLI argument into a normalized host.
func hostArg(arg string) (string, error) {
	if strings.Contains(arg, "://") {
		host, err := hostname.FromURL(arg)
		if err != nil {
			return "", fmt.Errorf("invalid url %q: %w", arg, err)
		}
		return host, nil
	}
	host := hostname.Normalize(arg)
	if host == "" {
		return "", fmt.Errorf("invalid host %q", arg)
	}
	return host, nil
}

func statusLabel(s model.HostStatus) string {
	switch {
	case s.IsUnsafe:
		return "unsafe"
	case s.IsSafe:
		return "safe"
	default:
		return "unknown"
	}
}
