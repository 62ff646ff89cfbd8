package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amanpack/configs"
	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage amanpack configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/amanpack/config.yaml)
  3. Project config (.amanpack.yaml, .amanpack.yml or .amanpack.toml)
  4. .env in the project root
  5. Environment variables (AMANPACK_*)
  6. Command line flags`,
		Example: `  # Write a project config with the defaults
  amanpack config init

  # Show effective configuration
  amanpack config show --json`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, effective bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create .amanpack.yaml from the commented template",
		Long: `Create .amanpack.yaml in the project directory.

By default the commented template is written. With --effective the
configuration currently in force (user config, .env and AMANPACK_*
variables included) is written instead.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runConfigInit(cmd, dir, force, effective)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing project config")
	cmd.Flags().BoolVar(&effective, "effective", false, "Write the merged configuration instead of the template")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runConfigShow(cmd, dir, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, dir string, force, effective bool) error {
	out := output.NewAuto(cmd.OutOrStdout())
	path := filepath.Join(dir, config.ProjectConfigFiles()[0])

	if _, err := os.Stat(path); err == nil && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Status("💡", "Use --force to overwrite it with the defaults")
		return nil
	}

	if effective {
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		if err := cfg.WriteYAML(path); err != nil {
			return err
		}
	} else if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created project configuration")
	out.Statusf("📁", "Location: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, dir string, jsonOutput bool) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
