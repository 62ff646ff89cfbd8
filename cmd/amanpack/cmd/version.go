package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var (
		jsonOutput  bool
		shortOutput bool
		fullOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the amanpack version with its git commit, build date and Go version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch {
			case shortOutput:
				_, err := fmt.Fprintln(w, version.Short())
				return err
			case jsonOutput:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			case fullOutput:
				_, err := fmt.Fprintln(w, version.Full())
				return err
			default:
				_, err := fmt.Fprintln(w, version.String())
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")
	cmd.Flags().BoolVar(&fullOutput, "full", false, "Output build details on separate lines")

	return cmd
}
