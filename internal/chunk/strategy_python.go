package chunk

import (
	"strings"
)

// pythonStrategy renders classes and functions as their decorators plus
// signature, without bodies.
type pythonStrategy struct{}

func (pythonStrategy) Extract(c Capture, lines []string, seen dedupSet, pc *ParseContext) (string, bool) {
	if c.StartRow < 0 || c.StartRow >= len(lines) || lines[c.StartRow] == "" {
		return "", false
	}

	var fragment string
	switch {
	case isCommentCapture(c.Name):
		if pc.Options.RemoveComments {
			return "", false
		}
		fragment = strings.Join(lineRange(lines, c.StartRow, c.EndRow), "\n")

	case strings.Contains(c.Name, "definition.class"), strings.Contains(c.Name, "definition.function"):
		signature := pythonSignature(lines, c.StartRow, headerEndRow(c))
		if signature == "" {
			return "", false
		}
		decorators := pythonDecorators(lines, c.StartRow)
		fragment = strings.Join(append(decorators, signature), "\n")

	case strings.Contains(c.Name, "definition.type_alias"):
		fragment = strings.TrimSpace(lines[c.StartRow])

	case strings.Contains(c.Name, "import"):
		fragment = strings.Join(lineRange(lines, c.StartRow, c.EndRow), "\n")

	default:
		return "", false
	}

	if !seen.add(strings.TrimSpace(fragment)) {
		return "", false
	}
	return fragment, true
}

// headerEndRow bounds the signature scan at the row where the definition's
// body starts. Name captures resolve through their parent definition.
func headerEndRow(c Capture) int {
	def := c.Node
	if def != nil && strings.HasPrefix(c.Name, "name.") {
		def = def.Parent()
	}
	if def == nil {
		return c.EndRow
	}
	body := def.ChildByFieldName("body")
	if body == nil {
		return c.EndRow
	}
	return min(c.EndRow, c.StartRow+int(body.StartPoint().Row-def.StartPoint().Row))
}

// pythonDecorators collects the contiguous decorator lines directly above
// row, in source order.
func pythonDecorators(lines []string, row int) []string {
	start := row
	for start > 0 && strings.HasPrefix(strings.TrimSpace(lines[start-1]), "@") {
		start--
	}
	out := make([]string, 0, row-start)
	out = append(out, lines[start:row]...)
	return out
}

// pythonSignature returns the def/class header starting at row with its
// block-opening colon removed. Headers spanning several lines are kept
// whole, up to the line where brackets balance.
func pythonSignature(lines []string, row, endRow int) string {
	if endRow >= len(lines) {
		endRow = len(lines) - 1
	}

	depth := 0
	for i := row; i <= endRow; i++ {
		code := strings.TrimRight(stripLineComment(lines[i]), " \t")
		before := depth
		depth += bracketDelta(code)
		if depth > 0 {
			continue
		}

		header := append([]string{}, lines[row:i]...)
		if strings.HasSuffix(code, ":") {
			return strings.Join(append(header, strings.TrimSuffix(code, ":")), "\n")
		}
		// One-liners such as "def f(): return 1".
		if idx := signatureColon(code, before); idx >= 0 {
			return strings.Join(append(header, code[:idx]), "\n")
		}
		return ""
	}
	return ""
}

// signatureColon returns the index of the first colon at bracket depth
// zero, starting from depth.
func signatureColon(code string, depth int) int {
	found := -1
	scanCode(code, func(i int, r rune) bool {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				found = i
				return false
			}
		}
		return true
	})
	return found
}

// bracketDelta is the net bracket depth change of code, ignoring brackets
// inside string literals.
func bracketDelta(code string) int {
	delta := 0
	scanCode(code, func(_ int, r rune) bool {
		switch r {
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
		return true
	})
	return delta
}

// scanCode calls fn for every rune of line outside string literals until fn
// returns false.
func scanCode(line string, fn func(i int, r rune) bool) {
	var quote rune
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		default:
			if !fn(i, r) {
				return
			}
		}
	}
}

// stripLineComment cuts a trailing "#" comment that is not inside a
// string literal.
func stripLineComment(line string) string {
	end := len(line)
	scanCode(line, func(i int, r rune) bool {
		if r == '#' {
			end = i
			return false
		}
		return true
	})
	return line[:end]
}
