// Package grammar resolves tree-sitter grammars by name.
//
// Grammars are compiled into the binary through the smacker bindings. A
// directory of prebuilt grammar libraries can be layered on top for bundled
// deployments: when AMANPACK_GRAMMAR_DIR (or Loader's dir) contains
// tree-sitter-<name>.so (.dylib on macOS) that library wins over the
// built-in copy.
package grammar

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/svelte"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// EnvGrammarDir overrides the directory searched for external grammar libraries.
const EnvGrammarDir = "AMANPACK_GRAMMAR_DIR"

var builtin = map[string]func() *sitter.Language{
	"c":          c.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"csharp":     csharp.GetLanguage,
	"css":        css.GetLanguage,
	"go":         golang.GetLanguage,
	"html":       html.GetLanguage,
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"php":        php.GetLanguage,
	"python":     python.GetLanguage,
	"ruby":       ruby.GetLanguage,
	"rust":       rust.GetLanguage,
	"svelte":     svelte.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"typescript": typescript.GetLanguage,
}

// Loader resolves grammar names to tree-sitter languages. It only caches
// the loaded handles; it is safe for concurrent use.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	external map[string]*sitter.Language
	handles  []uintptr
}

// NewLoader creates a loader. An empty dir falls back to AMANPACK_GRAMMAR_DIR;
// when both are empty only built-in grammars are available.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = os.Getenv(EnvGrammarDir)
	}
	return &Loader{
		dir:      dir,
		logger:   slog.Default(),
		external: make(map[string]*sitter.Language),
	}
}

// Dir returns the external grammar directory, or "" when unset.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the grammar for name.
func (l *Loader) Load(name string) (*sitter.Language, error) {
	if l.dir != "" {
		lang, err := l.loadExternal(name)
		if err != nil {
			return nil, err
		}
		if lang != nil {
			return lang, nil
		}
	}

	get, ok := builtin[name]
	if !ok {
		return nil, amanerrors.GrammarNotFound(name)
	}
	return get(), nil
}

// loadExternal returns (nil, nil) when dir has no library for name.
func (l *Loader) loadExternal(name string) (*sitter.Language, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lang, ok := l.external[name]; ok {
		return lang, nil
	}

	path := l.libraryPath(name)
	if path == "" {
		return nil, nil
	}

	lang, handle, err := openLibrary(path, symbolName(name))
	if err != nil {
		return nil, amanerrors.New(amanerrors.ErrCodeGrammarNotFound, "failed to load grammar library "+path, err).
			WithDetail("grammar", name)
	}

	l.handles = append(l.handles, handle)
	l.external[name] = lang
	l.logger.Debug("loaded external grammar",
		slog.String("grammar", name),
		slog.String("path", path))

	return lang, nil
}

// libraryPath returns the first existing library file for name, or "".
func (l *Loader) libraryPath(name string) string {
	for _, ext := range libraryExtensions() {
		path := filepath.Join(l.dir, "tree-sitter-"+name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Names returns the built-in grammar names in sorted order.
func (l *Loader) Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unloads every external grammar library. Languages returned by Load
// must not be used afterwards. Calling Close twice is a no-op.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, h := range l.handles {
		if err := closeLibrary(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.handles = nil
	l.external = make(map[string]*sitter.Language)
	return firstErr
}

func symbolName(name string) string {
	return "tree_sitter_" + strings.ReplaceAll(name, "-", "_")
}

func libraryExtensions() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{".dylib", ".so"}
	default:
		return []string{".so"}
	}
}
