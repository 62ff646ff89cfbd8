package chunk

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// StripComments removes every comment node from content. Lines left blank
// by a removal are dropped; other blank lines are kept. Files of unknown
// language are returned unchanged.
func (m *Manager) StripComments(ctx context.Context, content, path string) (string, error) {
	language, ok := m.GuessLanguage(path)
	if !ok || content == "" {
		return content, nil
	}

	res, err := m.ResourcesFor(ctx, language)
	if err != nil {
		return "", err
	}

	src := []byte(content)
	tree, err := res.Parse(ctx, src)
	if err != nil {
		return "", amanerrors.ParseFailure(path, err)
	}
	defer tree.Close()

	var spans []span
	collectComments(tree.RootNode(), &spans)
	if len(spans) == 0 {
		return content, nil
	}
	return removeSpans(content, spans), nil
}

type span struct {
	start, end int
}

func collectComments(node *sitter.Node, spans *[]span) {
	if node == nil {
		return
	}
	if strings.Contains(node.Type(), "comment") {
		*spans = append(*spans, span{start: int(node.StartByte()), end: int(node.EndByte())})
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectComments(node.NamedChild(i), spans)
	}
}

// removeSpans deletes the byte ranges from content and drops lines that
// only became blank because of a deletion.
func removeSpans(content string, spans []span) string {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.Grow(len(content))
	touched := make(map[int]bool) // line indexes in the output that lost text
	line := 0
	pos := 0
	for _, sp := range spans {
		if sp.start < pos || sp.end > len(content) {
			continue
		}
		chunk := content[pos:sp.start]
		b.WriteString(chunk)
		line += strings.Count(chunk, "\n")
		touched[line] = true
		// Keep the line structure of multi-line comments.
		removed := content[sp.start:sp.end]
		for n := strings.Count(removed, "\n"); n > 0; n-- {
			b.WriteByte('\n')
			line++
			touched[line] = true
		}
		pos = sp.end
	}
	b.WriteString(content[pos:])

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for i, l := range lines {
		if touched[i] {
			l = strings.TrimRight(l, " \t")
			if l == "" {
				continue
			}
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// RemoveEmptyLines drops every whitespace-only line.
func RemoveEmptyLines(content string) string {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
