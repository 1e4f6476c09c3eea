package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/database"
	"github.com/spf13/cobra"
)

// NewHostsCmd creates the hosts command group.
func NewHostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage the safe and unsafe host lists",
		Long: `Hosts lists and edits the persisted safe and unsafe host lists.

A host is on at most one list. Adding a host to one list moves it off the
other, and marking a host safe clears its entries from the detected-phishing
log.

Examples:
  rtps hosts list
  rtps hosts add intranet.example.com
  rtps hosts add --unsafe evil.example
  rtps hosts remove intranet.example.com
  rtps hosts import --unsafe blocklist.txt`,
	}

	cmd.AddCommand(newHostsListCmd())
	cmd.AddCommand(newHostsAddCmd())
	cmd.AddCommand(newHostsRemoveCmd())
	cmd.AddCommand(newHostsSeedCmd())
	cmd.AddCommand(newHostsImportCmd())
	return cmd
}

// withStore loads the configuration, opens the database and runs fn.
func withStore(cmd *cobra.Command, fn func(store *database.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg, cliLogger(cmd, cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHostsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print both host lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return withStore(cmd, func(store *database.Store) error {
				lists, err := store.HostLists(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(lists)
				}
				fmt.Fprintf(out, "Safe hosts (%d):\n", len(lists.SafeHosts))
				for _, h := range lists.SafeHosts {
					fmt.Fprintf(out, "  %s\n", h)
				}
				fmt.Fprintf(out, "Unsafe hosts (%d):\n", len(lists.UnsafeHosts))
				for _, h := range lists.UnsafeHosts {
					fmt.Fprintf(out, "  %s\n", h)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

func newHostsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <host>...",
		Short: "Add hosts to the safe list, or the unsafe list with --unsafe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unsafe, err := cmd.Flags().GetBool("unsafe")
			if err != nil {
				return err
			}
			list := "safe"
			if unsafe {
				list = "unsafe"
			}
			return withStore(cmd, func(store *database.Store) error {
				for _, arg := range args {
					host, err := hostArg(arg)
					if err != nil {
						return err
					}
					if err := store.AddHost(cmd.Context(), host, !unsafe); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to the %s list\n", host, list)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("unsafe", "u", false, "Add to the unsafe list")
	return cmd
}

func newHostsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <host>...",
		Aliases: []string{"rm"},
		Short:   "Remove hosts from both lists",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *database.Store) error {
				for _, arg := range args {
					host, err := hostArg(arg)
					if err != nil {
						return err
					}
					if err := store.RemoveHost(cmd.Context(), host); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", host)
				}
				return nil
			})
		},
	}
}

func newHostsSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Merge the built-in safe hosts into the safe list",
		Long: `Seed adds every built-in safe host that is not already listed.
Hosts the user moved to the unsafe list stay there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(store *database.Store) error {
				added, err := store.MergeSafeHosts(cmd.Context(), classifier.DefaultSafeHosts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d built-in safe host(s)\n", added)
				return nil
			})
		},
	}
}

func newHostsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import hosts from a file with one host or URL per line",
		Long: `Import reads one host or URL per line. Blank lines and lines starting
with # are skipped. Hosts go to the safe list unless --unsafe is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unsafe, err := cmd.Flags().GetBool("unsafe")
			if err != nil {
				return err
			}
			hosts, err := readHostFile(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(store *database.Store) error {
				if !unsafe {
					added, err := store.MergeSafeHosts(cmd.Context(), hosts)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Imported %d safe host(s)\n", added)
					return nil
				}
				for _, host := range hosts {
					if err := store.AddHost(cmd.Context(), host, false); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d unsafe host(s)\n", len(hosts))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("unsafe", "u", false, "Import into the unsafe list")
	return cmd
}

// readHostFile parses a host list file.
func readHostFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open host file: %w", err)
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		host, err := hostArg(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		hosts = append(hosts, host)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read host file: %w", err)
	}
	return hosts, nil
}
