package chunk

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// Compress reduces content to the fragments selected by its language's
// strategy, joined by newlines in source order.
//
// The boolean result is false when path has no known language; callers
// should keep the original content in that case. Parse failures are
// returned as errors rather than an empty result.
func (m *Manager) Compress(ctx context.Context, content, path string, opts Options) (string, bool, error) {
	m.mu.RLock()
	initialized := m.initialized
	m.mu.RUnlock()
	if !initialized {
		return "", false, amanerrors.Uninitialized()
	}

	lines := strings.Split(content, "\n")
	if content == "" || len(lines) < 1 {
		return "", true, nil
	}

	language, ok := m.GuessLanguage(path)
	if !ok {
		return "", false, nil
	}

	res, err := m.ResourcesFor(ctx, language)
	if err != nil {
		return "", false, err
	}

	src := []byte(content)
	tree, err := res.Parse(ctx, src)
	if err != nil {
		return "", false, amanerrors.ParseFailure(path, err)
	}
	defer tree.Close()

	pc := &ParseContext{
		Content: src,
		Lines:   lines,
		Tree:    tree,
		Query:   res.query,
		Options: opts,
		ctx:     ctx,
	}

	captures := collectCaptures(res.query, tree.RootNode(), src, 0)
	fragments := runStrategy(res.strategy, captures, lines, make(dedupSet), pc)

	m.logger.Debug("compressed file",
		slog.String("path", path),
		slog.String("language", language),
		slog.Int("captures", len(captures)),
		slog.Int("fragments", len(fragments)))

	return strings.Join(fragments, "\n"), true, nil
}

// collectCaptures runs query over node and returns every capture sorted by
// start row. Ties keep query emission order. rowOffset shifts rows for
// sub-language parses of an embedded region.
func collectCaptures(query *sitter.Query, node *sitter.Node, src []byte, rowOffset int) []Capture {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, node)

	var captures []Capture
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, src)
		for _, c := range match.Captures {
			if c.Node == nil {
				continue
			}
			captures = append(captures, Capture{
				Node:     c.Node,
				Name:     query.CaptureNameForId(c.Index),
				StartRow: int(c.Node.StartPoint().Row) + rowOffset,
				EndRow:   int(c.Node.EndPoint().Row) + rowOffset,
			})
		}
	}

	sort.SliceStable(captures, func(i, j int) bool {
		return captures[i].StartRow < captures[j].StartRow
	})
	return captures
}

// runStrategy feeds captures through strategy in order. seen is shared by
// every strategy that contributes to the same file.
func runStrategy(strategy Strategy, captures []Capture, lines []string, seen dedupSet, pc *ParseContext) []string {
	var fragments []string
	for _, c := range captures {
		fragment, ok := strategy.Extract(c, lines, seen, pc)
		if !ok {
			continue
		}
		if pc.Options.RemoveEmptyLines {
			fragment = RemoveEmptyLines(fragment)
		}
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		// Final guard over the rendered fragment, whatever the strategy keyed on.
		if !seen.add("\x00" + fragment) {
			continue
		}
		fragments = append(fragments, fragment)
	}
	return fragments
}

// isCommentCapture reports whether a capture is a comment or docstring.
func isCommentCapture(name string) bool {
	return strings.Contains(name, "comment") || strings.Contains(name, "docstring")
}

// lineRange returns lines[start..end] inclusive, clamped to the array.
func lineRange(lines []string, start, end int) []string {
	if start < 0 || start >= len(lines) {
		return nil
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if end < start {
		return nil
	}
	return lines[start : end+1]
}
