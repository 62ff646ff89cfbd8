package truncate

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Aman-CERP/amanpack/internal/chunk"
)

// ErrNoStructure is returned by an Analyzer when a file cannot be analyzed
// structurally. The engine then truncates by line count.
var ErrNoStructure = errors.New("structure unavailable")

// Structure is what truncation needs to know about a file.
type Structure struct {
	Language string

	// Functions are the outermost functions and methods in declaration order.
	Functions []Function

	// FirstStart is the first line of the first function or class and
	// LastEnd the last line of the last one. Both are 1-based; zero when
	// the file has neither.
	FirstStart int
	LastEnd    int

	Comment chunk.CommentStyle
}

// Analyzer extracts Structure from file content. An error wrapping
// ErrNoStructure may come with a partial Structure carrying only the
// language and comment style.
type Analyzer interface {
	Analyze(ctx context.Context, content, path string) (*Structure, error)
}

// TreeAnalyzer analyzes files with the tree-sitter resources of a
// chunk.Manager.
type TreeAnalyzer struct {
	manager *chunk.Manager
}

// NewTreeAnalyzer creates an analyzer over an initialized manager.
func NewTreeAnalyzer(manager *chunk.Manager) *TreeAnalyzer {
	return &TreeAnalyzer{manager: manager}
}

// Analyze implements Analyzer.
func (a *TreeAnalyzer) Analyze(ctx context.Context, content, path string) (*Structure, error) {
	language, ok := a.manager.GuessLanguage(path)
	if !ok {
		return nil, fmt.Errorf("%w: unknown language", ErrNoStructure)
	}
	config, ok := a.manager.Registry().GetByName(language)
	if !ok {
		return nil, fmt.Errorf("%w: unknown language", ErrNoStructure)
	}
	if !config.HasStructure() {
		// Partial structure so the fallback can still write indicators.
		partial := &Structure{Language: language, Comment: config.Comment}
		return partial, fmt.Errorf("%w: no function types for %s", ErrNoStructure, language)
	}

	src := []byte(content)
	tree, _, err := a.manager.Parse(ctx, language, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &walker{
		src:       src,
		functions: toSet(config.FunctionTypes),
		classes:   toSet(config.ClassTypes),
		branches:  toSet(config.BranchTypes),
	}
	w.visit(tree.RootNode(), nil)
	scoreImportance(w.out.Functions)

	w.out.Language = language
	w.out.Comment = config.Comment
	return &w.out, nil
}

type walker struct {
	src       []byte
	functions map[string]bool
	classes   map[string]bool
	branches  map[string]bool
	out       Structure
}

func (w *walker) visit(node *sitter.Node, classes []int) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if w.functions[nodeType] {
		span := spanNode(node)
		fn := Function{
			Name:       functionName(node, w.src),
			NodeType:   nodeType,
			StartLine:  int(span.StartPoint().Row) + 1,
			EndLine:    endLine(span),
			Complexity: complexity(node, w.branches),
			Classes:    classes,
		}
		w.out.Functions = append(w.out.Functions, fn)
		w.extend(fn.StartLine, fn.EndLine)
		// Nested functions belong to this one.
		return
	}

	if w.classes[nodeType] {
		span := spanNode(node)
		start := int(span.StartPoint().Row) + 1
		w.extend(start, endLine(span))
		classes = append(classes[:len(classes):len(classes)], start)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		w.visit(node.NamedChild(i), classes)
	}
}

func (w *walker) extend(start, end int) {
	if w.out.FirstStart == 0 || start < w.out.FirstStart {
		w.out.FirstStart = start
	}
	if end > w.out.LastEnd {
		w.out.LastEnd = end
	}
}

// spanNode widens a definition to include its decorators.
func spanNode(node *sitter.Node) *sitter.Node {
	if p := node.Parent(); p != nil && p.Type() == "decorated_definition" {
		return p
	}
	return node
}

// endLine returns the 1-based last line of node. A node ending at column 0
// stops on the previous line.
func endLine(node *sitter.Node) int {
	end := node.EndPoint()
	if end.Column == 0 && end.Row > node.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// complexity is 1 plus, for every branching node inside the function,
// 1 + the number of branching nodes enclosing it. Deeper nesting costs more.
func complexity(node *sitter.Node, branches map[string]bool) int {
	total := 1
	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			d := depth
			if branches[child.Type()] {
				total += 1 + depth
				d++
			}
			walk(child, d)
		}
	}
	walk(node, 0)
	return total
}

func scoreImportance(fns []Function) {
	maxComplexity := 0
	for _, fn := range fns {
		maxComplexity = max(maxComplexity, fn.Complexity)
	}
	if maxComplexity == 0 {
		return
	}
	for i := range fns {
		fns[i].Importance = float64(fns[i].Complexity) / float64(maxComplexity)
	}
}

func functionName(node *sitter.Node, src []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}

	// C-family: function_definition -> declarator chain -> identifier.
	if decl := node.ChildByFieldName("declarator"); decl != nil {
		for next := decl.ChildByFieldName("declarator"); next != nil; next = decl.ChildByFieldName("declarator") {
			decl = next
		}
		return decl.Content(src)
	}

	// Anonymous functions bound to a name.
	if p := node.Parent(); p != nil {
		var name *sitter.Node
		switch p.Type() {
		case "variable_declarator":
			name = p.ChildByFieldName("name")
		case "pair":
			name = p.ChildByFieldName("key")
		case "assignment_expression":
			name = p.ChildByFieldName("left")
		}
		if name != nil {
			return name.Content(src)
		}
	}

	return fmt.Sprintf("<anonymous:%d>", node.StartPoint().Row+1)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
