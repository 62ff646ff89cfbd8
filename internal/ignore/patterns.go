package ignore

import (
	"strings"

	"github.com/gobwas/glob"
)

// Patterns is a compiled list of include or exclude globs. A pattern
// without a slash matches at any depth; "dir/**" also matches dir itself.
type Patterns struct {
	raw   []string
	globs [][]glob.Glob
}

// NewPatterns compiles patterns. Blank entries are skipped.
func NewPatterns(patterns []string) (*Patterns, error) {
	p := &Patterns{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		pattern = strings.TrimPrefix(pattern, "./")
		if pattern == "" {
			continue
		}
		clean := strings.Trim(pattern, "/")
		globs, err := compile(clean, strings.Contains(clean, "/"))
		if err != nil {
			return nil, err
		}
		p.raw = append(p.raw, pattern)
		p.globs = append(p.globs, globs)
	}
	return p, nil
}

// Len returns the number of compiled patterns.
func (p *Patterns) Len() int {
	if p == nil {
		return 0
	}
	return len(p.raw)
}

// Match reports whether path matches any pattern. Nil or empty Patterns
// match nothing.
func (p *Patterns) Match(path string) bool {
	if p == nil {
		return false
	}
	path = normalize(path)
	for _, globs := range p.globs {
		if matchAny(globs, path) {
			return true
		}
	}
	return false
}

// MatchWithin reports whether path or any of its parent directories
// matches.
func (p *Patterns) MatchWithin(path string) bool {
	if p.Len() == 0 {
		return false
	}
	path = normalize(path)
	for _, dir := range ancestors(path) {
		if p.Match(dir) {
			return true
		}
	}
	return p.Match(path)
}
