package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/singleflight"

	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
	"github.com/Aman-CERP/amanpack/internal/grammar"
)

// GrammarLoader resolves a grammar name to a tree-sitter language.
type GrammarLoader interface {
	Load(name string) (*sitter.Language, error)
}

// LanguageResources is the per-language parser, compiled query and strategy.
// Instances are owned by a Manager and live until Manager.Dispose.
type LanguageResources struct {
	Language string
	Config   *LanguageConfig

	lang     *sitter.Language
	query    *sitter.Query
	strategy Strategy

	// mu serializes use of parser; the query is read-only and shared.
	mu     sync.Mutex
	parser *sitter.Parser
	closed bool
}

// Parse parses src into a syntax tree. The caller owns the returned tree.
func (r *LanguageResources) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("%s parser already disposed", r.Language)
	}

	tree, err := r.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, fmt.Errorf("nil tree")
	}
	return tree, nil
}

func (r *LanguageResources) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.parser.Close()
	r.query.Close()
	if c, ok := r.strategy.(interface{ Close() }); ok {
		c.Close()
	}
}

// Manager owns the lazily constructed resources of every language.
// Init must be called before any other method; Dispose releases
// everything. A Manager is safe for concurrent use.
type Manager struct {
	registry *LanguageRegistry
	loader   GrammarLoader
	logger   *slog.Logger

	// ownedLoader is set when the manager created its loader and must
	// unload external grammars on Dispose.
	ownedLoader *grammar.Loader

	mu          sync.RWMutex
	initialized bool
	resources   map[string]*LanguageResources
	group       singleflight.Group
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRegistry replaces the default language registry.
func WithRegistry(r *LanguageRegistry) ManagerOption {
	return func(m *Manager) { m.registry = r }
}

// WithLoader replaces the grammar loader.
func WithLoader(l GrammarLoader) ManagerOption {
	return func(m *Manager) { m.loader = l }
}

// WithGrammarDir loads external grammar libraries from dir. The manager
// owns the loader and unloads the libraries on Dispose.
func WithGrammarDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.ownedLoader = grammar.NewLoader(dir)
		m.loader = m.ownedLoader
	}
}

// WithLogger sets the logger used for per-language diagnostics.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates an uninitialized manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.loader == nil {
		m.ownedLoader = grammar.NewLoader("")
		m.loader = m.ownedLoader
	}
	return m
}

// Init prepares the manager for use. Calling it again is a no-op.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	m.resources = make(map[string]*LanguageResources)
	m.initialized = true
	return nil
}

// Registry returns the language registry.
func (m *Manager) Registry() *LanguageRegistry {
	return m.registry
}

// GuessLanguage maps a file path to a language name. Unknown extensions
// return ("", false).
func (m *Manager) GuessLanguage(path string) (string, bool) {
	return m.registry.GuessLanguage(path)
}

// ResourcesFor returns the resources for language, building them on first
// use. Concurrent callers share one construction. Failures are returned
// as LanguagePrepare errors and are not cached.
func (m *Manager) ResourcesFor(ctx context.Context, language string) (*LanguageResources, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if !m.initialized {
		m.mu.RUnlock()
		return nil, amanerrors.Uninitialized()
	}
	if res, ok := m.resources[language]; ok {
		m.mu.RUnlock()
		return res, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(language, func() (any, error) {
		// Re-check under singleflight: a previous flight may have finished.
		m.mu.RLock()
		res, ok := m.resources[language]
		initialized := m.initialized
		m.mu.RUnlock()
		if !initialized {
			return nil, amanerrors.Uninitialized()
		}
		if ok {
			return res, nil
		}

		res, err := m.build(language)
		if err != nil {
			m.logger.Warn("language prepare failed",
				slog.String("language", language),
				slog.String("error", err.Error()))
			return nil, amanerrors.LanguagePrepare(language, err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.initialized {
			// Disposed while building.
			res.close()
			return nil, amanerrors.Uninitialized()
		}
		m.resources[language] = res
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*LanguageResources), nil
}

// build loads the grammar, binds a parser, compiles the query and
// instantiates the strategy for language.
func (m *Manager) build(language string) (*LanguageResources, error) {
	config, ok := m.registry.GetByName(language)
	if !ok {
		return nil, fmt.Errorf("unknown language %q", language)
	}

	lang, err := m.loader.Load(config.Grammar)
	if err != nil {
		return nil, err
	}

	query, err := sitter.NewQuery([]byte(config.Query), lang)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	strategy, err := m.newStrategy(config)
	if err != nil {
		query.Close()
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	m.logger.Debug("language prepared",
		slog.String("language", language),
		slog.String("grammar", config.Grammar))

	return &LanguageResources{
		Language: language,
		Config:   config,
		lang:     lang,
		query:    query,
		strategy: strategy,
		parser:   parser,
	}, nil
}

func (m *Manager) newStrategy(config *LanguageConfig) (Strategy, error) {
	switch config.Strategy {
	case StrategyDefault, "":
		return defaultStrategy{}, nil
	case StrategyPython:
		return pythonStrategy{}, nil
	case StrategyMarkup:
		return markupStrategy{}, nil
	case StrategyComposite:
		s, err := newCompositeStrategy(m, config)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", config.Strategy)
	}
}

// Parse parses src with the parser for language. It is the entry point used
// by structural truncation.
func (m *Manager) Parse(ctx context.Context, language string, src []byte) (*sitter.Tree, *LanguageConfig, error) {
	res, err := m.ResourcesFor(ctx, language)
	if err != nil {
		return nil, nil, err
	}
	tree, err := res.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return tree, res.Config, nil
}

// Dispose releases every parser and query and clears the cache. The
// manager returns to the uninitialized state; calling Dispose again is a
// no-op.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	for _, res := range m.resources {
		res.close()
	}
	m.resources = nil
	m.initialized = false

	if m.ownedLoader != nil {
		if err := m.ownedLoader.Close(); err != nil {
			m.logger.Warn("failed to unload grammars", slog.String("error", err.Error()))
		}
	}
}

// Prepared returns the names of languages whose resources are cached.
func (m *Manager) Prepared() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.resources))
	for name := range m.resources {
		names = append(names, name)
	}
	return names
}
