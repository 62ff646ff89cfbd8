package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	"github.com/Aman-CERP/amanpack/internal/output"
)

// languageRow is one line of the languages listing.
type languageRow struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Grammar    string   `json:"grammar"`
	Structural bool     `json:"structural"`
}

func newLanguagesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Long: `List the languages amanpack can compress. Languages marked
structural also support --line-limit with function-aware truncation;
the others fall back to keeping the first lines.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []languageRow
			for _, c := range chunk.DefaultRegistry().Languages() {
				rows = append(rows, languageRow{
					Name:       c.Name,
					Extensions: c.Extensions,
					Grammar:    c.Grammar,
					Structural: c.HasStructure(),
				})
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			out := output.NewAuto(cmd.OutOrStdout())
			out.Header(fmt.Sprintf("%d languages", len(rows)))
			for _, r := range rows {
				mode := "compress"
				if r.Structural {
					mode = "compress, line-limit"
				}
				out.KeyValue(r.Name, fmt.Sprintf("%s (%s)", strings.Join(r.Extensions, " "), mode))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
