package chunk

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Options controls how a file is compressed.
type Options struct {
	// RemoveComments skips comment and docstring captures.
	RemoveComments bool

	// RemoveEmptyLines drops whitespace-only lines inside emitted fragments.
	RemoveEmptyLines bool
}

// Capture is a tagged node produced by running a language query.
type Capture struct {
	Node *sitter.Node
	Name string // dot-delimited tag, e.g. "name.definition.function"

	// StartRow and EndRow are 0-based rows into the file's line array.
	// For captures produced by a sub-language parse they are already
	// shifted into the host file's coordinates.
	StartRow int
	EndRow   int
}

// ParseContext is the read-only state shared by every capture of one
// extraction run.
type ParseContext struct {
	Content []byte
	Lines   []string
	Tree    *sitter.Tree
	Query   *sitter.Query
	Options Options

	ctx context.Context
}

// Context returns the context of the extraction run.
func (pc *ParseContext) Context() context.Context {
	if pc.ctx == nil {
		return context.Background()
	}
	return pc.ctx
}

// dedupSet holds normalized fragments already emitted for the current file.
type dedupSet map[string]struct{}

// add records key and reports whether it was new.
func (s dedupSet) add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Strategy decides whether a capture contributes a fragment and renders it.
// Implementations never fail: an unexpected capture shape yields ("", false).
type Strategy interface {
	Extract(c Capture, lines []string, seen dedupSet, pc *ParseContext) (string, bool)
}

// StrategyKind selects the Strategy implementation for a language.
type StrategyKind string

const (
	StrategyDefault   StrategyKind = "default"
	StrategyPython    StrategyKind = "python"
	StrategyComposite StrategyKind = "composite"
	StrategyMarkup    StrategyKind = "markup"
)

// CommentStyle describes how to write a single-line comment in a language.
type CommentStyle struct {
	Prefix string
	Suffix string
}

// Wrap renders text as a comment.
func (c CommentStyle) Wrap(text string) string {
	if c.Suffix == "" {
		return c.Prefix + " " + text
	}
	return c.Prefix + " " + text + " " + c.Suffix
}
