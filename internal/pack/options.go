package pack

import (
	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/render"
	"github.com/Aman-CERP/amanpack/internal/scanner"
)

// Options configures one pack run.
type Options struct {
	// Compress runs structure-aware compression. It takes precedence over
	// LineLimit for files with a supported language.
	Compress         bool
	RemoveComments   bool
	RemoveEmptyLines bool

	// LineLimit caps each file's line count. Zero disables it.
	LineLimit         int
	ShowIndicators    bool
	PreserveStructure bool
	EnableCaching     bool

	// Workers is the pool size; zero derives it from the file count.
	Workers int

	Scan   scanner.ScanOptions
	Render render.Options

	// OutputPath is the destination file. Empty means the caller writes
	// Result.Document itself.
	OutputPath string
}

// OptionsFromConfig maps loaded configuration onto pack options for root.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Compress:          cfg.Compression.Compress,
		RemoveComments:    cfg.Compression.RemoveComments,
		RemoveEmptyLines:  cfg.Compression.RemoveEmptyLines,
		LineLimit:         cfg.Compression.LineLimit,
		ShowIndicators:    cfg.Compression.ShowIndicators,
		PreserveStructure: cfg.Compression.PreserveStructure,
		EnableCaching:     cfg.Compression.EnableCaching,
		Workers:           cfg.Performance.Workers,
		Scan: scanner.ScanOptions{
			RootDir:          root,
			IncludePatterns:  cfg.Paths.Include,
			ExcludePatterns:  cfg.Paths.Exclude,
			RespectGitignore: cfg.Paths.RespectGitignore,
			MaxFileSize:      cfg.Paths.MaxFileSize,
		},
		Render: render.Options{
			Style:              cfg.Output.Style,
			HeaderText:         cfg.Output.HeaderText,
			FileSummary:        cfg.Output.FileSummary,
			DirectoryStructure: cfg.Output.DirectoryStructure,
			ShowLineNumbers:    cfg.Output.ShowLineNumbers,
			ParsableStyle:      cfg.Output.ParsableStyle,
		},
		OutputPath: cfg.Output.FilePath,
	}
}

// notes describes the reductions applied, for the file summary.
func (o Options) notes() []string {
	var notes []string
	if o.Compress {
		notes = append(notes, "Supported source files are compressed to their signatures, imports and comments.")
	}
	if o.RemoveComments {
		notes = append(notes, "Comments have been removed.")
	}
	if o.RemoveEmptyLines {
		notes = append(notes, "Empty lines have been removed.")
	}
	if o.LineLimit > 0 {
		notes = append(notes, "Files are limited to the configured line budget.")
	}
	return notes
}
