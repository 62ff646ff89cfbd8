package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/internal/logging"
	"github.com/Aman-CERP/amanpack/internal/output"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	logFile string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View amanpack logs",
		Long: `View the JSON log written by 'amanpack serve' and --debug runs.

By default the last 50 lines of ~/.amanpack/logs/amanpack.log are shown.
Use -f to follow new entries.`,
		Example: `  amanpack logs -n 100
  amanpack logs -f --level warn
  amanpack logs --filter "line limit"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Keep lines matching this regular expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	stdout := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor || !output.IsTTY(stdout) || output.DetectNoColor(),
	}, stdout)

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n---\n", path)

	if !opts.follow {
		entries, err := viewer.Tail(path, opts.lines)
		if err != nil {
			return err
		}
		viewer.Print(entries)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return follow(ctx, viewer, path)
}

func follow(ctx context.Context, viewer *logging.Viewer, path string) error {
	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)
	go func() { errCh <- viewer.Follow(ctx, path, entries) }()

	for {
		select {
		case entry := <-entries:
			viewer.Print([]logging.LogEntry{entry})
		case err := <-errCh:
			return err
		}
	}
}
