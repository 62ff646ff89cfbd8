package ignore

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Matcher holds compiled gitignore rules and provides thread-safe matching.
type Matcher struct {
	mu     sync.RWMutex
	rules  []rule
	logger *slog.Logger
}

type rule struct {
	pattern  string
	globs    []glob.Glob
	negation bool
	dirOnly  bool
	base     string
}

// New creates a new empty Matcher that logs to slog.Default.
func New() *Matcher {
	return NewWithLogger(nil)
}

// NewWithLogger creates a new empty Matcher. Patterns skipped while loading
// ignore files are reported to logger at Debug.
func NewWithLogger(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Len returns the number of rules loaded.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// AddPattern adds a gitignore pattern that applies from the root.
func (m *Matcher) AddPattern(pattern string) error {
	return m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base, as for a
// nested ignore file. Blank lines and comments are accepted and ignored.
func (m *Matcher) AddPatternWithBase(pattern, base string) error {
	escapedSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)

	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return nil
	}

	r := rule{pattern: pattern, base: normalize(base)}

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}

	if escapedSpace && strings.HasSuffix(pattern, `\`) {
		pattern = strings.TrimSuffix(pattern, `\`) + `\ `
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimRight(pattern, "/")
	}

	anchored := false
	if strings.HasPrefix(pattern, "/") {
		anchored = true
		pattern = strings.TrimLeft(pattern, "/")
	}
	// "doc/frotz" means "/doc/frotz", not "**/doc/frotz".
	if strings.Contains(pattern, "/") {
		anchored = true
	}
	if pattern == "" {
		return nil
	}

	globs, err := compile(pattern, anchored)
	if err != nil {
		return err
	}
	r.globs = globs

	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
	return nil
}

// AddFromFile reads patterns from an ignore file. Malformed patterns are
// skipped.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if err := m.AddPatternWithBase(scanner.Text(), base); err != nil {
			m.logger.Debug("skipping invalid ignore pattern",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("pattern", scanner.Text()),
				slog.String("error", err.Error()))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read ignore file: %w", err)
	}
	return nil
}

// Match reports whether path should be ignored. A path inside an ignored
// directory is ignored regardless of later negations.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = normalize(path)
	if path == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, dir := range ancestors(path) {
		if m.match(dir, true) {
			return true
		}
	}
	return m.match(path, isDir)
}

// match applies rules in order; the last matching rule decides.
func (m *Matcher) match(path string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		rel := path
		if r.base != "" {
			var ok bool
			rel, ok = strings.CutPrefix(path, r.base+"/")
			if !ok {
				continue
			}
		}
		if matchAny(r.globs, rel) {
			ignored = !r.negation
		}
	}
	return ignored
}

// ParsePatterns extracts patterns from ignore file content, skipping blank
// lines and comments.
func ParsePatterns(content string) []string {
	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
