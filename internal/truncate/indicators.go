package truncate

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/amanpack/internal/chunk"
)

// newIndicator describes the elided 0-based line range [from, to).
func newIndicator(lines []string, from, to int, functions []Function, comment chunk.CommentStyle) Indicator {
	count := to - from
	startLine, endLine := from+1, to

	var removed []string
	classes := 0
	for _, fn := range functions {
		if !fn.Selected && fn.StartLine >= startLine && fn.EndLine <= endLine {
			removed = append(removed, fn.Name)
		}
		for _, c := range fn.Classes {
			if c >= startLine && c <= endLine {
				classes++
			}
		}
	}

	ind := Indicator{Line: startLine}
	switch {
	case len(removed) > 0:
		ind.Kind = IndicatorFunction
		ind.Description = fmt.Sprintf("%d lines truncated (%s)", count, strings.Join(removed, ", "))
	case classes > 0:
		ind.Kind = IndicatorClass
		ind.Description = fmt.Sprintf("%d lines truncated (class body)", count)
	default:
		ind.Kind = IndicatorBlock
		ind.Description = fmt.Sprintf("%d lines truncated", count)
	}

	if comment.Prefix != "" {
		ind.Text = leadingWhitespace(lines[from]) + comment.Wrap("... "+ind.Description)
	}
	return ind
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
