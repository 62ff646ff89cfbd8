package chunk

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const markupIndent = "  "

// markupStrategy renders an indented skeleton of opening tags.
type markupStrategy struct{}

func (markupStrategy) Extract(c Capture, _ []string, seen dedupSet, pc *ParseContext) (string, bool) {
	if c.Node == nil || !strings.Contains(c.Name, "tag") {
		return "", false
	}

	name := c.Node.Content(pc.Content)
	if name == "" {
		return "", false
	}

	line := strings.Repeat(markupIndent, elementDepth(c.Node)) + "<" + name
	if !seen.add(line) {
		return "", false
	}
	return line, true
}

// elementDepth counts the element ancestors enclosing the element that a
// tag name opens.
func elementDepth(name *sitter.Node) int {
	tag := name.Parent()
	if tag == nil {
		return 0
	}
	container := tag.Parent()
	if container == nil {
		return 0
	}

	depth := 0
	for p := container.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "element" {
			depth++
		}
	}
	return depth
}
