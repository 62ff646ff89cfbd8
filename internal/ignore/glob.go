package ignore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compile expands a cleaned pattern into the glob variants that together
// implement gitignore matching, then compiles each one.
func compile(pattern string, anchored bool) ([]glob.Glob, error) {
	pattern = escapeBraces(pattern)

	variants := []string{pattern}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		variants = append(variants, rest)
	}
	for _, v := range variants {
		if dir, ok := strings.CutSuffix(v, "/**"); ok && dir != "" {
			variants = append(variants, dir)
		}
	}
	for _, v := range variants {
		if strings.Contains(v, "/**/") {
			variants = append(variants, strings.Replace(v, "/**/", "/", 1))
		}
	}
	if !anchored {
		for _, v := range variants {
			if !strings.HasPrefix(v, "**/") {
				variants = append(variants, "**/"+v)
			}
		}
	}

	seen := make(map[string]bool, len(variants))
	globs := make([]glob.Glob, 0, len(variants))
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// escapeBraces quotes '{' and '}' which gitignore treats literally.
func escapeBraces(pattern string) string {
	if !strings.ContainsAny(pattern, "{}") {
		return pattern
	}
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
			continue
		}
		if c == '{' || c == '}' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// normalize converts path to the slash-separated, root-relative form used
// for matching.
func normalize(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.Trim(path, "/")
}

// ancestors returns the parent directories of path, shortest first.
func ancestors(path string) []string {
	var dirs []string
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			dirs = append(dirs, path[:i])
		}
	}
	return dirs
}
