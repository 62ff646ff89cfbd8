// Package truncate limits a file to a line budget while keeping its
// structure readable: leading header lines, whole high-complexity
// functions and trailing footer lines.
package truncate

import "slices"

// Section is the band a kept line belongs to.
type Section string

const (
	SectionHeader Section = "header"
	SectionCore   Section = "core"
	SectionFooter Section = "footer"
)

// Outcome is the terminal state of one Apply call.
type Outcome string

const (
	// OutcomeWithinBudget means the file already fit; content is unchanged.
	OutcomeWithinBudget Outcome = "within_budget"

	// OutcomeStructural means lines were selected from parsed structure.
	OutcomeStructural Outcome = "structural"

	// OutcomeFallback means structure was unavailable and the first lines
	// were kept.
	OutcomeFallback Outcome = "fallback"

	// OutcomeFailed means structural truncation failed internally and the
	// content was returned unlimited.
	OutcomeFailed Outcome = "failed"
)

// Options controls a single truncation.
type Options struct {
	// PreserveStructure keeps the opening line of classes that enclose a
	// kept function.
	PreserveStructure bool

	// ShowIndicators writes a comment line where content was elided.
	ShowIndicators bool

	// EnableCaching memoizes results by path, content hash and budget.
	EnableCaching bool
}

// SourceLine is one kept line of the output.
type SourceLine struct {
	Number     int // 1-based line number in the original file
	Content    string
	Section    Section
	Importance float64 // in [0,1]
	NodeType   string  // originating node type, if any
}

// Function is the analysis of one outermost function or method.
type Function struct {
	Name       string
	NodeType   string
	StartLine  int // 1-based, inclusive
	EndLine    int // 1-based, inclusive
	Complexity int
	Importance float64
	Selected   bool

	// Classes lists the start lines of enclosing classes, outermost first.
	Classes []int
}

// LineCount returns the number of lines the function spans.
func (f Function) LineCount() int {
	return f.EndLine - f.StartLine + 1
}

// IndicatorKind names what was removed at an elision point.
type IndicatorKind string

const (
	IndicatorFunction IndicatorKind = "function"
	IndicatorClass    IndicatorKind = "class"
	IndicatorBlock    IndicatorKind = "block"
)

// Indicator marks where lines were elided.
type Indicator struct {
	// Line is the 1-based original line number where the elided run starts.
	Line        int
	Kind        IndicatorKind
	Description string
	// Text is the rendered comment, present in the output only with
	// ShowIndicators.
	Text string
}

// Metadata describes how a result was produced.
type Metadata struct {
	Outcome    Outcome
	Language   string
	Allocation Allocation
	// Reason explains fallback and failure outcomes.
	Reason    string
	Functions []Function
	Cached    bool
}

// Result is the outcome of limiting one file.
type Result struct {
	Content   string
	Truncated bool

	OriginalLineCount int
	// LimitedLineCount counts kept source lines; indicator lines are not included.
	LimitedLineCount int

	SelectedLines      []SourceLine
	TruncatedFunctions []string
	Indicators         []Indicator
	Metadata           Metadata
}

// clone copies r deeply enough that callers may modify the copy's slices
// without affecting cached results.
func (r *Result) clone() *Result {
	c := *r
	c.SelectedLines = slices.Clone(r.SelectedLines)
	c.TruncatedFunctions = slices.Clone(r.TruncatedFunctions)
	c.Indicators = slices.Clone(r.Indicators)
	c.Metadata.Functions = slices.Clone(r.Metadata.Functions)
	for i := range c.Metadata.Functions {
		c.Metadata.Functions[i].Classes = slices.Clone(r.Metadata.Functions[i].Classes)
	}
	return &c
}
