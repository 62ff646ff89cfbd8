package truncate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// DefaultCacheSize is the number of results kept when caching is enabled.
const DefaultCacheSize = 1024

// Config configures an Engine. Zero values select the defaults.
type Config struct {
	HeaderRatio float64
	FooterRatio float64
	CacheSize   int
	Logger      *slog.Logger
}

// Engine applies line budgets to files. It is safe for concurrent use.
type Engine struct {
	analyzer    Analyzer
	headerRatio float64
	footerRatio float64
	cache       *lru.Cache[string, *Result]
	logger      *slog.Logger
}

// NewEngine creates an engine that reads structure through analyzer.
func NewEngine(analyzer Analyzer, cfg Config) (*Engine, error) {
	if cfg.HeaderRatio == 0 && cfg.FooterRatio == 0 {
		cfg.HeaderRatio, cfg.FooterRatio = DefaultHeaderRatio, DefaultFooterRatio
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := lru.New[string, *Result](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create truncation cache: %w", err)
	}

	return &Engine{
		analyzer:    analyzer,
		headerRatio: cfg.HeaderRatio,
		footerRatio: cfg.FooterRatio,
		cache:       cache,
		logger:      cfg.Logger,
	}, nil
}

// Apply limits content to budget lines. It never fails: when structural
// truncation breaks, the original content is returned untruncated and the
// failure is logged. A budget <= 0 means no limit.
func (e *Engine) Apply(ctx context.Context, content, path string, budget int, opts Options) *Result {
	lines, trailingNewline := splitLines(content)

	if budget <= 0 || len(lines) <= budget {
		return &Result{
			Content:           content,
			OriginalLineCount: len(lines),
			LimitedLineCount:  len(lines),
			Metadata:          Metadata{Outcome: OutcomeWithinBudget},
		}
	}

	var key string
	if opts.EnableCaching {
		key = cacheKey(path, content, budget, opts)
		if cached, ok := e.cache.Get(key); ok {
			hit := cached.clone()
			hit.Metadata.Cached = true
			return hit
		}
	}

	result := e.truncate(ctx, content, path, lines, trailingNewline, budget, opts)

	if key != "" && result.Metadata.Outcome != OutcomeFailed {
		e.cache.Add(key, result.clone())
	}
	return result
}

// CacheLen returns the number of cached results.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

func (e *Engine) truncate(ctx context.Context, content, path string, lines []string, trailingNewline bool, budget int, opts Options) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = e.failed(content, path, len(lines), fmt.Errorf("panic: %v", r))
		}
	}()

	structure, err := e.analyzer.Analyze(ctx, content, path)
	switch {
	case errors.Is(err, ErrNoStructure):
		return e.fallback(path, lines, trailingNewline, budget, opts, structure, err.Error())
	case err != nil:
		return e.failed(content, path, len(lines), err)
	case len(structure.Functions) == 0:
		return e.fallback(path, lines, trailingNewline, budget, opts, structure, "no functions detected")
	}

	return e.structural(path, lines, trailingNewline, budget, opts, structure)
}

func (e *Engine) failed(content, path string, lineCount int, cause error) *Result {
	err := amanerrors.TruncationAbort(path, cause)
	e.logger.Warn("line limit skipped", amanerrors.LogAttrs(err)...)

	return &Result{
		Content:           content,
		OriginalLineCount: lineCount,
		LimitedLineCount:  lineCount,
		Metadata: Metadata{
			Outcome: OutcomeFailed,
			Reason:  err.Error(),
		},
	}
}

// fallback keeps the first budget lines.
func (e *Engine) fallback(path string, lines []string, trailingNewline bool, budget int, opts Options, structure *Structure, reason string) *Result {
	e.logger.Debug("line limit without structure",
		slog.String("path", path),
		slog.String("reason", reason))

	var comment chunk.CommentStyle
	var language string
	if structure != nil {
		comment = structure.Comment
		language = structure.Language
	}

	kept := make([]*SourceLine, len(lines))
	for i := 0; i < budget; i++ {
		kept[i] = &SourceLine{Number: i + 1, Content: lines[i], Section: SectionCore, Importance: 1}
	}

	result := assemble(lines, kept, nil, comment, opts.ShowIndicators, trailingNewline)
	result.Metadata = Metadata{
		Outcome:    OutcomeFallback,
		Language:   language,
		Allocation: Allocation{Core: budget},
		Reason:     reason,
	}
	return result
}

func (e *Engine) structural(path string, lines []string, trailingNewline bool, budget int, opts Options, structure *Structure) *Result {
	alloc := Allocate(budget, e.headerRatio, e.footerRatio)
	n := len(lines)
	kept := make([]*SourceLine, n)

	// Header: leading lines before the first function or class.
	headerEnd := structure.FirstStart - 1
	for i := 0; i < headerEnd && i < alloc.Header; i++ {
		kept[i] = &SourceLine{Number: i + 1, Content: lines[i], Section: SectionHeader, Importance: 1}
	}

	// Footer: trailing lines after the last function or class.
	footerStart := max(structure.LastEnd, n-alloc.Footer)
	for i := footerStart; i < n; i++ {
		kept[i] = &SourceLine{Number: i + 1, Content: lines[i], Section: SectionFooter, Importance: 1}
	}

	functions := append([]Function(nil), structure.Functions...)
	order := make([]int, len(functions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return functions[order[a]].Complexity > functions[order[b]].Complexity
	})

	used := 0
	for _, idx := range order {
		fn := &functions[idx]

		cost := 0
		for l := fn.StartLine; l <= fn.EndLine && l <= n; l++ {
			if kept[l-1] == nil {
				cost++
			}
		}
		var anchors []int
		if opts.PreserveStructure {
			for _, c := range fn.Classes {
				if c < fn.StartLine && c <= n && kept[c-1] == nil {
					anchors = append(anchors, c)
				}
			}
		}
		cost += len(anchors)

		if used+cost > alloc.Core {
			break
		}

		for l := fn.StartLine; l <= fn.EndLine && l <= n; l++ {
			if kept[l-1] == nil {
				kept[l-1] = &SourceLine{
					Number:     l,
					Content:    lines[l-1],
					Section:    SectionCore,
					Importance: fn.Importance,
					NodeType:   fn.NodeType,
				}
			}
		}
		for _, c := range anchors {
			kept[c-1] = &SourceLine{Number: c, Content: lines[c-1], Section: SectionCore, Importance: 1, NodeType: "class"}
		}
		used += cost
		fn.Selected = true
	}

	result := assemble(lines, kept, functions, structure.Comment, opts.ShowIndicators, trailingNewline)
	for _, fn := range functions {
		if !fn.Selected {
			result.TruncatedFunctions = append(result.TruncatedFunctions, fn.Name)
		}
	}
	result.Metadata = Metadata{
		Outcome:    OutcomeStructural,
		Language:   structure.Language,
		Allocation: alloc,
		Functions:  functions,
	}

	e.logger.Debug("line limit applied",
		slog.String("path", path),
		slog.Int("original", n),
		slog.Int("limited", result.LimitedLineCount),
		slog.Int("functions_truncated", len(result.TruncatedFunctions)))

	return result
}

// assemble renders kept lines in original order and records an indicator
// for every elided run.
func assemble(lines []string, kept []*SourceLine, functions []Function, comment chunk.CommentStyle, show bool, trailingNewline bool) *Result {
	result := &Result{Truncated: true, OriginalLineCount: len(lines)}
	var out []string

	flush := func(from, to int) {
		ind := newIndicator(lines, from, to, functions, comment)
		result.Indicators = append(result.Indicators, ind)
		if show && ind.Text != "" {
			out = append(out, ind.Text)
		}
	}

	gap := -1
	for i, line := range kept {
		if line == nil {
			if gap < 0 {
				gap = i
			}
			continue
		}
		if gap >= 0 {
			flush(gap, i)
			gap = -1
		}
		out = append(out, line.Content)
		result.SelectedLines = append(result.SelectedLines, *line)
	}
	if gap >= 0 {
		flush(gap, len(lines))
	}

	result.LimitedLineCount = len(result.SelectedLines)
	result.Content = strings.Join(out, "\n")
	if trailingNewline && len(out) > 0 {
		result.Content += "\n"
	}
	return result
}

// splitLines splits content into lines. A single trailing newline ends the
// last line rather than starting an empty one.
func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(content, "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), trailing
}

func cacheKey(path, content string, budget int, opts Options) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return fmt.Sprintf("%s:%d:%t:%t", hex.EncodeToString(h.Sum(nil)), budget, opts.PreserveStructure, opts.ShowIndicators)
}
