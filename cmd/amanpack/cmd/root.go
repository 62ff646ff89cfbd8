// Package cmd provides the CLI commands for amanpack.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/internal/logging"
	"github.com/Aman-CERP/amanpack/internal/profiling"
	"github.com/Aman-CERP/amanpack/pkg/version"
)

// Persistent flags shared by every command.
var (
	debugMode      bool
	profileOpts    profiling.Options
	profileSession *profiling.Session
	loggingCleanup func()
)

// NewRootCmd creates the root command for the amanpack CLI.
func NewRootCmd() *cobra.Command {
	flags := &packFlags{}

	cmd := &cobra.Command{
		Use:   "amanpack [path]",
		Short: "Pack a repository into one AI-friendly document",
		Long: `amanpack packs a source tree into a single XML, Markdown or plain
document for AI assistants.

It honors .gitignore and .amanpackignore, and can shrink every file with
tree-sitter: --compress keeps only imports, signatures and comments, and
--line-limit keeps a file's header, footer and most important functions
within a line budget.

Running 'amanpack' with no subcommand packs the current directory.`,
		Version:      version.Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args, flags)
		},
	}

	cmd.SetVersionTemplate("amanpack version {{.Version}}\n")

	flags.register(cmd)

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.amanpack/logs/")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newPackCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLanguagesCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs the logger and starts any requested
// profiles. The serve command installs its own file-only logger.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Name() != "serve" {
		cfg := logging.DefaultConfig()
		if debugMode {
			cfg = logging.DebugConfig()
		}
		cleanup, err := logging.SetupDefault(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		loggingCleanup = cleanup
		if debugMode {
			slog.Info("Debug logging enabled",
				slog.String("log_file", logging.DefaultLogPath()),
				slog.String("version", version.Version))
		}
	}

	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profileSession = s
	}
	return nil
}

// stopProfilingAndLogging flushes profiles and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		slog.Debug("profiling stopped", slog.String("heap_in_use", profiling.HeapInUse()))
		profileSession = nil
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
