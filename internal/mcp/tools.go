package mcp

// CompressFileInput defines the input schema for the compress_file tool.
type CompressFileInput struct {
	Path             string `json:"path" jsonschema:"file path relative to the project root; also selects the language"`
	Content          string `json:"content,omitempty" jsonschema:"source to compress instead of reading path from disk"`
	RemoveComments   bool   `json:"remove_comments,omitempty" jsonschema:"drop comment captures from the output"`
	RemoveEmptyLines bool   `json:"remove_empty_lines,omitempty" jsonschema:"drop whitespace-only lines from the output"`
}

// CompressFileOutput defines the output schema for the compress_file tool.
type CompressFileOutput struct {
	Path          string `json:"path"`
	Language      string `json:"language,omitempty" jsonschema:"detected language, empty when unsupported"`
	MIMEType      string `json:"mime_type"`
	Compressed    bool   `json:"compressed" jsonschema:"false when the language is unsupported or parsing failed"`
	Reason        string `json:"reason,omitempty" jsonschema:"why the content was returned unchanged"`
	Content       string `json:"content"`
	OriginalLines int    `json:"original_lines"`
	Lines         int    `json:"lines"`
}

// LimitLinesInput defines the input schema for the limit_lines tool.
type LimitLinesInput struct {
	Path              string `json:"path" jsonschema:"file path relative to the project root; also selects the language"`
	Content           string `json:"content,omitempty" jsonschema:"source to limit instead of reading path from disk"`
	LineLimit         int    `json:"line_limit" jsonschema:"maximum number of source lines to keep, must be positive"`
	ShowIndicators    bool   `json:"show_indicators,omitempty" jsonschema:"insert comments where lines were removed"`
	PreserveStructure bool   `json:"preserve_structure,omitempty" jsonschema:"keep function and class boundaries intact"`
}

// LimitLinesOutput defines the output schema for the limit_lines tool.
type LimitLinesOutput struct {
	Path               string   `json:"path"`
	Language           string   `json:"language,omitempty"`
	Truncated          bool     `json:"truncated"`
	Outcome            string   `json:"outcome" jsonschema:"within_budget, structural, fallback or failed"`
	Reason             string   `json:"reason,omitempty"`
	Content            string   `json:"content"`
	OriginalLines      int      `json:"original_lines"`
	LimitedLines       int      `json:"limited_lines" jsonschema:"kept source lines, indicator lines excluded"`
	TruncatedFunctions []string `json:"truncated_functions,omitempty" jsonschema:"functions removed or cut short"`
}

// PackDirectoryInput defines the input schema for the pack_directory tool.
// Unset options fall back to the project configuration.
type PackDirectoryInput struct {
	Path             string   `json:"path,omitempty" jsonschema:"directory relative to the project root, default the root itself"`
	Style            string   `json:"style,omitempty" jsonschema:"output style: xml, markdown or plain"`
	Compress         *bool    `json:"compress,omitempty" jsonschema:"compress supported files to their signatures"`
	RemoveComments   *bool    `json:"remove_comments,omitempty"`
	RemoveEmptyLines *bool    `json:"remove_empty_lines,omitempty"`
	LineLimit        *int     `json:"line_limit,omitempty" jsonschema:"per-file line budget, 0 disables it"`
	ShowLineNumbers  *bool    `json:"show_line_numbers,omitempty"`
	Include          []string `json:"include,omitempty" jsonschema:"glob patterns a file must match"`
	Exclude          []string `json:"exclude,omitempty" jsonschema:"glob patterns added to the configured excludes"`
}

// PackDirectoryOutput defines the output schema for the pack_directory tool.
type PackDirectoryOutput struct {
	Project  ProjectInfo `json:"project"`
	Files    int         `json:"files"`
	Skipped  []string    `json:"skipped,omitempty" jsonschema:"files that could not be read"`
	Chars    int         `json:"chars"`
	Tokens   int         `json:"tokens" jsonschema:"approximate token count of the document"`
	Document string      `json:"document"`
}

// ListLanguagesInput defines the input schema for the list_languages tool
// (no parameters).
type ListLanguagesInput struct{}

// ListLanguagesOutput defines the output schema for the list_languages tool.
type ListLanguagesOutput struct {
	Languages []LanguageInfo `json:"languages"`
}

// LanguageInfo describes one supported language.
type LanguageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Structural bool     `json:"structural" jsonschema:"true when line limits can follow function boundaries"`
	Prepared   bool     `json:"prepared" jsonschema:"true when the grammar has been loaded in this process"`
}
