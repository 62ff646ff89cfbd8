package chunk

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var scriptLangPattern = regexp.MustCompile(`\blang\s*=\s*["']?(ts|typescript|tsx)\b`)

// compositeStrategy handles single-file components that embed several
// languages. On the document capture it emits, in order, the template
// skeleton, the style sheets and the scripts. Embedded regions are parsed
// with their own language resources and share the host's line array and
// dedup set.
type compositeStrategy struct {
	manager  *Manager
	template *sitter.Query
	logger   *slog.Logger
}

func newCompositeStrategy(m *Manager, config *LanguageConfig) (*compositeStrategy, error) {
	lang, err := m.loader.Load(config.Grammar)
	if err != nil {
		return nil, err
	}
	query, err := sitter.NewQuery([]byte(queryMarkup), lang)
	if err != nil {
		return nil, fmt.Errorf("compile template query: %w", err)
	}
	return &compositeStrategy{
		manager:  m,
		template: query,
		logger:   m.logger,
	}, nil
}

func (s *compositeStrategy) Close() {
	s.template.Close()
}

func (s *compositeStrategy) Extract(c Capture, lines []string, seen dedupSet, pc *ParseContext) (string, bool) {
	if c.Node == nil || !strings.Contains(c.Name, "composite") {
		return "", false
	}
	root := c.Node

	var parts []string
	parts = append(parts, s.extractTemplate(root, lines, seen, pc)...)
	for _, el := range namedChildrenOfType(root, "style_element") {
		parts = append(parts, s.extractEmbedded(el, "css", lines, seen, pc)...)
	}
	for _, el := range namedChildrenOfType(root, "script_element") {
		parts = append(parts, s.extractEmbedded(el, scriptLanguage(el, pc.Content), lines, seen, pc)...)
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// extractTemplate renders the tag skeleton of regular elements, leaving
// out the script and style tags handled by their own passes.
func (s *compositeStrategy) extractTemplate(root *sitter.Node, lines []string, seen dedupSet, pc *ParseContext) []string {
	all := collectCaptures(s.template, root, pc.Content, 0)

	captures := all[:0]
	for _, c := range all {
		tag := c.Node.Parent()
		if tag == nil || tag.Parent() == nil || tag.Parent().Type() != "element" {
			continue
		}
		captures = append(captures, c)
	}
	return runStrategy(markupStrategy{}, captures, lines, seen, pc)
}

// extractEmbedded parses the raw text of a script or style element as
// language and runs that language's strategy over it.
func (s *compositeStrategy) extractEmbedded(el *sitter.Node, language string, lines []string, seen dedupSet, pc *ParseContext) []string {
	raw := firstNamedChildOfType(el, "raw_text")
	if raw == nil {
		return nil
	}

	res, err := s.manager.ResourcesFor(pc.Context(), language)
	if err != nil {
		s.logger.Debug("embedded language unavailable",
			slog.String("language", language),
			slog.String("error", err.Error()))
		return nil
	}

	src := []byte(raw.Content(pc.Content))
	tree, err := res.Parse(pc.Context(), src)
	if err != nil {
		s.logger.Debug("embedded parse failed",
			slog.String("language", language),
			slog.String("error", err.Error()))
		return nil
	}
	defer tree.Close()

	sub := &ParseContext{
		Content: src,
		Lines:   lines,
		Tree:    tree,
		Query:   res.query,
		Options: pc.Options,
		ctx:     pc.ctx,
	}
	captures := collectCaptures(res.query, tree.RootNode(), src, int(raw.StartPoint().Row))
	return runStrategy(res.strategy, captures, lines, seen, sub)
}

// scriptLanguage picks typescript when the script tag declares lang="ts".
func scriptLanguage(el *sitter.Node, src []byte) string {
	start := firstNamedChildOfType(el, "start_tag")
	if start == nil {
		return "javascript"
	}
	m := scriptLangPattern.FindStringSubmatch(start.Content(src))
	if m == nil {
		return "javascript"
	}
	if m[1] == "tsx" {
		return "tsx"
	}
	return "typescript"
}

func namedChildrenOfType(node *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}

func firstNamedChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}
