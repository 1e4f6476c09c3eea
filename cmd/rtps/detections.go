package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/rtps/internal/database"
	"github.com/nao1215/rtps/internal/report"
	"github.com/spf13/cobra"
)

// NewDetectionsCmd creates the detections command.
func NewDetectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detections",
		Short: "Show or clear the detected-phishing log",
		Long: `Detections prints every password page the engine flagged as phishing,
oldest first.

Examples:
  # Human-readable log
  rtps detections

  # Markdown report with a chart, written to a file
  rtps detections --markdown -o phishing.md

  # JSON including the current host lists
  rtps detections --json --hosts

  # Empty the log
  rtps detections --clear`,
		Args: cobra.NoArgs,
		RunE: runDetectionsCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("hosts", false, "Include the safe and unsafe host lists")
	cmd.Flags().Bool("clear", false, "Delete every entry from the log")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// detectionsOptions are the parsed detections flags.
type detectionsOptions struct {
	json     bool
	markdown bool
	output   string
	hosts    bool
	clear    bool
}

func parseDetectionsFlags(cmd *cobra.Command) (detectionsOptions, error) {
	var (
		opts detectionsOptions
		err  error
	)
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}
	if opts.hosts, err = cmd.Flags().GetBool("hosts"); err != nil {
		return opts, err
	}
	if opts.clear, err = cmd.Flags().GetBool("clear"); err != nil {
		return opts, err
	}
	return opts, nil
}

// runDetectionsCmd executes the detections command.
func runDetectionsCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseDetectionsFlags(cmd)
	if err != nil {
		return err
	}

	return withStore(cmd, func(store *database.Store) error {
		ctx := cmd.Context()
		if opts.clear {
			n, err := store.ClearDetections(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d detection(s)\n", n)
			return nil
		}

		detections, err := store.Detections(ctx)
		if err != nil {
			return err
		}
		r := report.NewReport(detections, time.Now())
		if opts.hosts {
			lists, err := store.HostLists(ctx)
			if err != nil {
				return err
			}
			r.Hosts = &lists
		}
		return outputReport(cmd.OutOrStdout(), opts, r, getVerboseFlag(cmd))
	})
}

// outputReport writes r to stdout or to the requested file.
func outputReport(stdout io.Writer, opts detectionsOptions, r *report.Report, verbose bool) (err error) {
	output := stdout
	if opts.output != "" {
		dir := filepath.Dir(opts.output)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// The log holds URLs of the user's browsing, so keep it owner-only.
		f, err := os.OpenFile(opts.output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		output = f
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(verbose))
	}
	_, err = w.Write(r)
	return err
}
