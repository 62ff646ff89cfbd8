package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/logging"
	"github.com/Aman-CERP/amanpack/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server for one project root.

The server exposes compress_file, limit_lines, pack_directory and
list_languages as tools. It never writes files. Logs go to
~/.amanpack/logs/amanpack.log because stdout carries JSON-RPC.`,
		Example: `  # Serve the current project
  amanpack serve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(ctx, path, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport (stdio); defaults to server.transport from config")

	return cmd
}

// runServe starts the MCP server for the project containing path. Nothing
// is written to stdout before the transport takes it over.
func runServe(ctx context.Context, path, transport string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	root, err := config.FindProjectRoot(abs)
	if err != nil {
		root = abs
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if transport == "" {
		transport = cfg.Server.Transport
	}

	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}
	logger, cleanup, err := logging.Setup(logging.ServerConfig(level))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	p, err := newPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	srv, err := mcp.NewServer(p.manager, p.engine, p.packer, cfg, root)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, transport)
}
