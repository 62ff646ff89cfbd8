package chunk

import "strings"

// defaultStrategy keeps name, comment and import captures as the raw
// source lines they span.
type defaultStrategy struct{}

func (defaultStrategy) Extract(c Capture, lines []string, seen dedupSet, pc *ParseContext) (string, bool) {
	if c.StartRow < 0 || c.StartRow >= len(lines) || lines[c.StartRow] == "" {
		return "", false
	}

	isName := strings.Contains(c.Name, "name")
	isComment := strings.Contains(c.Name, "comment")
	isImport := strings.Contains(c.Name, "import") || strings.Contains(c.Name, "require")
	if !isName && !isComment && !isImport {
		return "", false
	}
	if isComment && pc.Options.RemoveComments {
		return "", false
	}

	selected := lineRange(lines, c.StartRow, c.EndRow)
	if len(selected) == 0 {
		return "", false
	}

	fragment := strings.Join(selected, "\n")
	if !seen.add(strings.TrimSpace(fragment)) {
		return "", false
	}
	return fragment, true
}
