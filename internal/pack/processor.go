package pack

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
	"github.com/Aman-CERP/amanpack/internal/truncate"
)

// Reduction records what happened to one file.
type Reduction string

const (
	ReductionNone       Reduction = "none"
	ReductionCompressed Reduction = "compressed"
	ReductionTruncated  Reduction = "truncated"
)

// FileResult is one processed file.
type FileResult struct {
	Path          string
	Language      string
	Content       string
	Reduction     Reduction
	OriginalLines int
	Lines         int
}

// Processor reduces single files. It is safe for concurrent use.
type Processor struct {
	manager *chunk.Manager
	engine  *truncate.Engine
	logger  *slog.Logger
}

// NewProcessor creates a processor over an initialized manager and engine.
func NewProcessor(manager *chunk.Manager, engine *truncate.Engine, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{manager: manager, engine: engine, logger: logger}
}

// ProcessFile applies opts to one file's content.
//
// With Compress set and a supported language, the file is compressed and
// LineLimit is not applied. Otherwise comments and blank lines are removed
// as requested and the line budget is applied. Parse failures and
// truncation aborts keep the content and are logged; only fatal errors and
// cancellation are returned.
func (p *Processor) ProcessFile(ctx context.Context, path, content string, opts Options) (FileResult, error) {
	if err := ctx.Err(); err != nil {
		return FileResult{}, err
	}

	language, _ := p.manager.GuessLanguage(path)
	result := FileResult{
		Path:          path,
		Language:      language,
		Content:       content,
		Reduction:     ReductionNone,
		OriginalLines: CountLines(content),
	}

	if opts.Compress {
		compressed, ok, err := p.manager.Compress(ctx, content, path, chunk.Options{
			RemoveComments:   opts.RemoveComments,
			RemoveEmptyLines: opts.RemoveEmptyLines,
		})
		switch {
		case err != nil:
			if amanerrors.IsFatal(err) || ctx.Err() != nil {
				return FileResult{}, err
			}
			p.logger.Warn("compression skipped", append([]any{slog.String("path", path)}, amanerrors.LogAttrs(err)...)...)
		case ok:
			result.Content = compressed
			result.Reduction = ReductionCompressed
			result.Lines = CountLines(compressed)
			return result, nil
		}
	}

	content = result.Content
	if opts.RemoveComments && language != "" {
		stripped, err := p.manager.StripComments(ctx, content, path)
		if err != nil {
			if amanerrors.IsFatal(err) || ctx.Err() != nil {
				return FileResult{}, err
			}
			p.logger.Warn("comment removal skipped", append([]any{slog.String("path", path)}, amanerrors.LogAttrs(err)...)...)
		} else {
			content = stripped
		}
	}
	if opts.RemoveEmptyLines {
		content = chunk.RemoveEmptyLines(content)
	}

	if opts.LineLimit > 0 {
		limited := p.engine.Apply(ctx, content, path, opts.LineLimit, truncate.Options{
			PreserveStructure: opts.PreserveStructure,
			ShowIndicators:    opts.ShowIndicators,
			EnableCaching:     opts.EnableCaching,
		})
		content = limited.Content
		if limited.Truncated {
			result.Reduction = ReductionTruncated
		}
	}

	result.Content = content
	result.Lines = CountLines(content)
	return result, nil
}

// CountLines counts lines the way the truncation engine does: a trailing
// newline does not start a new line.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}
