package chunk

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LanguageConfig describes how one language is parsed, queried and
// analyzed for truncation.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// Grammar is the name passed to the grammar loader.
	Grammar string

	// Query is the tree-sitter query whose captures feed the strategy.
	Query    string
	Strategy StrategyKind

	// Node types used by structural truncation. Languages without
	// FunctionTypes are truncated by line count only.
	FunctionTypes []string
	ClassTypes    []string
	BranchTypes   []string

	Comment CommentStyle
}

// HasStructure reports whether structural truncation can be applied.
func (c *LanguageConfig) HasStructure() bool {
	return len(c.FunctionTypes) > 0
}

// LanguageRegistry maps file extensions to language configurations.
type LanguageRegistry struct {
	mu        sync.RWMutex
	configs   map[string]*LanguageConfig // keyed by language name
	extToLang map[string]string          // extension -> language name
}

// NewLanguageRegistry creates a registry populated with the built-in languages.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:   make(map[string]*LanguageConfig),
		extToLang: make(map[string]string),
	}
	for _, cfg := range builtinLanguages() {
		r.Register(cfg)
	}
	return r
}

// Register adds or replaces a language configuration.
func (r *LanguageRegistry) Register(config *LanguageConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[config.Name] = config
	for _, ext := range config.Extensions {
		r.extToLang[strings.ToLower(ext)] = config.Name
	}
}

// GetByExtension returns the language configuration for a file extension.
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	config, ok := r.configs[name]
	return config, ok
}

// GetByName returns the language configuration by name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[name]
	return config, ok
}

// GuessLanguage maps a file path to a language name by extension.
// Unknown extensions return ("", false).
func (r *LanguageRegistry) GuessLanguage(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	config, ok := r.GetByExtension(ext)
	if !ok {
		return "", false
	}
	return config.Name, true
}

// Languages returns all registered configurations sorted by name.
func (r *LanguageRegistry) Languages() []*LanguageConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*LanguageConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SupportedExtensions returns all supported file extensions, sorted.
func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

var (
	slashComment = CommentStyle{Prefix: "//"}
	hashComment  = CommentStyle{Prefix: "#"}
	blockComment = CommentStyle{Prefix: "/*", Suffix: "*/"}
	tagComment   = CommentStyle{Prefix: "<!--", Suffix: "-->"}
)

var jsBranchTypes = []string{
	"if_statement",
	"for_statement",
	"for_in_statement",
	"while_statement",
	"do_statement",
	"switch_case",
	"catch_clause",
	"ternary_expression",
}

func builtinLanguages() []*LanguageConfig {
	return []*LanguageConfig{
		{
			Name:          "go",
			Extensions:    []string{".go"},
			Grammar:       "go",
			Query:         queryGo,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"function_declaration", "method_declaration"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"expression_switch_statement",
				"type_switch_statement",
				"select_statement",
				"expression_case",
				"type_case",
				"communication_case",
			},
			Comment: slashComment,
		},
		{
			Name:          "python",
			Extensions:    []string{".py", ".pyi"},
			Grammar:       "python",
			Query:         queryPython,
			Strategy:      StrategyPython,
			FunctionTypes: []string{"function_definition"},
			ClassTypes:    []string{"class_definition"},
			BranchTypes: []string{
				"if_statement",
				"elif_clause",
				"for_statement",
				"while_statement",
				"try_statement",
				"except_clause",
				"with_statement",
				"conditional_expression",
				"list_comprehension",
				"boolean_operator",
			},
			Comment: hashComment,
		},
		{
			Name:       "javascript",
			Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
			Grammar:    "javascript",
			Query:      queryJavaScript,
			Strategy:   StrategyDefault,
			FunctionTypes: []string{
				"function_declaration",
				"generator_function_declaration",
				"method_definition",
				"arrow_function",
			},
			ClassTypes:  []string{"class_declaration"},
			BranchTypes: jsBranchTypes,
			Comment:     slashComment,
		},
		{
			Name:       "typescript",
			Extensions: []string{".ts", ".mts", ".cts"},
			Grammar:    "typescript",
			Query:      queryTypeScript,
			Strategy:   StrategyDefault,
			FunctionTypes: []string{
				"function_declaration",
				"generator_function_declaration",
				"method_definition",
				"arrow_function",
			},
			ClassTypes:  []string{"class_declaration", "abstract_class_declaration"},
			BranchTypes: jsBranchTypes,
			Comment:     slashComment,
		},
		{
			Name:       "tsx",
			Extensions: []string{".tsx"},
			Grammar:    "tsx",
			Query:      queryTypeScript,
			Strategy:   StrategyDefault,
			FunctionTypes: []string{
				"function_declaration",
				"generator_function_declaration",
				"method_definition",
				"arrow_function",
			},
			ClassTypes:  []string{"class_declaration", "abstract_class_declaration"},
			BranchTypes: jsBranchTypes,
			Comment:     slashComment,
		},
		{
			Name:          "rust",
			Extensions:    []string{".rs"},
			Grammar:       "rust",
			Query:         queryRust,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"function_item"},
			ClassTypes:    []string{"impl_item", "trait_item"},
			BranchTypes: []string{
				"if_expression",
				"match_arm",
				"for_expression",
				"while_expression",
				"loop_expression",
			},
			Comment: slashComment,
		},
		{
			Name:          "java",
			Extensions:    []string{".java"},
			Grammar:       "java",
			Query:         queryJava,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"method_declaration", "constructor_declaration"},
			ClassTypes:    []string{"class_declaration", "interface_declaration", "enum_declaration"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"enhanced_for_statement",
				"while_statement",
				"do_statement",
				"catch_clause",
				"ternary_expression",
			},
			Comment: slashComment,
		},
		{
			Name:          "c",
			Extensions:    []string{".c", ".h"},
			Grammar:       "c",
			Query:         queryC,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"function_definition"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"while_statement",
				"do_statement",
				"case_statement",
				"conditional_expression",
			},
			Comment: slashComment,
		},
		{
			Name:          "cpp",
			Extensions:    []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
			Grammar:       "cpp",
			Query:         queryCpp,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"function_definition"},
			ClassTypes:    []string{"class_specifier", "struct_specifier"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"for_range_loop",
				"while_statement",
				"do_statement",
				"case_statement",
				"catch_clause",
				"conditional_expression",
			},
			Comment: slashComment,
		},
		{
			Name:          "csharp",
			Extensions:    []string{".cs"},
			Grammar:       "csharp",
			Query:         queryCSharp,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"method_declaration", "constructor_declaration"},
			ClassTypes:    []string{"class_declaration", "struct_declaration", "interface_declaration"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"foreach_statement",
				"while_statement",
				"do_statement",
				"switch_section",
				"catch_clause",
				"conditional_expression",
			},
			Comment: slashComment,
		},
		{
			Name:          "ruby",
			Extensions:    []string{".rb"},
			Grammar:       "ruby",
			Query:         queryRuby,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"method", "singleton_method"},
			ClassTypes:    []string{"class", "module"},
			BranchTypes:   []string{"if", "unless", "while", "until", "for", "case", "when", "rescue", "conditional"},
			Comment:       hashComment,
		},
		{
			Name:          "php",
			Extensions:    []string{".php"},
			Grammar:       "php",
			Query:         queryPHP,
			Strategy:      StrategyDefault,
			FunctionTypes: []string{"function_definition", "method_declaration"},
			ClassTypes:    []string{"class_declaration", "interface_declaration", "trait_declaration"},
			BranchTypes: []string{
				"if_statement",
				"for_statement",
				"foreach_statement",
				"while_statement",
				"do_statement",
				"case_statement",
				"catch_clause",
				"conditional_expression",
			},
			Comment: slashComment,
		},
		{
			Name:       "css",
			Extensions: []string{".css"},
			Grammar:    "css",
			Query:      queryCSS,
			Strategy:   StrategyDefault,
			Comment:    blockComment,
		},
		{
			Name:       "html",
			Extensions: []string{".html", ".htm", ".xml", ".xhtml", ".svg"},
			Grammar:    "html",
			Query:      queryMarkup,
			Strategy:   StrategyMarkup,
			Comment:    tagComment,
		},
		{
			Name:       "vue",
			Extensions: []string{".vue"},
			Grammar:    "html",
			Query:      queryComposite,
			Strategy:   StrategyComposite,
			Comment:    tagComment,
		},
		{
			Name:       "svelte",
			Extensions: []string{".svelte"},
			Grammar:    "svelte",
			Query:      queryComposite,
			Strategy:   StrategyComposite,
			Comment:    tagComment,
		},
	}
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the global language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
