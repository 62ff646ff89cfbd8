package packer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/pack"
	"github.com/Aman-CERP/amanpack/internal/truncate"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("packer is closed")

// CompressOptions controls Compress.
type CompressOptions = chunk.Options

// LimitOptions controls LimitLines.
type LimitOptions = truncate.Options

// LimitResult is the outcome of LimitLines.
type LimitResult = truncate.Result

// PackResult is the outcome of PackDirectory.
type PackResult = pack.Result

// Packer bundles the compression and packing pipeline.
type Packer struct {
	manager *chunk.Manager
	engine  *truncate.Engine
	packer  *pack.Packer
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Packer.
type Option func(*settings)

type settings struct {
	logger    *slog.Logger
	cacheSize int
}

// WithLogger sets the logger used by every stage.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithCacheSize sets the number of cached line-limit results.
func WithCacheSize(n int) Option {
	return func(s *settings) { s.cacheSize = n }
}

// New creates and initializes a Packer.
func New(opts ...Option) (*Packer, error) {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	manager := chunk.NewManager(chunk.WithLogger(s.logger))
	if err := manager.Init(); err != nil {
		return nil, err
	}
	engine, err := truncate.NewEngine(truncate.NewTreeAnalyzer(manager), truncate.Config{
		CacheSize: s.cacheSize,
		Logger:    s.logger,
	})
	if err != nil {
		manager.Dispose()
		return nil, err
	}
	p, err := pack.New(pack.NewProcessor(manager, engine, s.logger), pack.WithLogger(s.logger))
	if err != nil {
		manager.Dispose()
		return nil, err
	}

	return &Packer{manager: manager, engine: engine, packer: p, logger: s.logger}, nil
}

// Compress reduces content to its skeleton. ok is false when the path's
// language is not supported, in which case content is returned unchanged.
func (p *Packer) Compress(ctx context.Context, content, path string, opts CompressOptions) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return content, false, ErrClosed
	}
	return p.manager.Compress(ctx, content, path, opts)
}

// LimitLines reduces content to at most limit lines. A limit <= 0 returns
// content unchanged. It never fails; check Metadata.Outcome for how the
// budget was applied.
func (p *Packer) LimitLines(ctx context.Context, content, path string, limit int, opts LimitOptions) *LimitResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return &LimitResult{
			Content:  content,
			Metadata: truncate.Metadata{Outcome: truncate.OutcomeFailed, Reason: ErrClosed.Error()},
		}
	}
	return p.engine.Apply(ctx, content, path, limit, opts)
}

// PackDirectory packs root using cfg. A nil cfg uses the defaults. When
// cfg names an output file it is written; otherwise the document is in
// the result.
func (p *Packer) PackDirectory(ctx context.Context, root string, cfg *config.Config) (*PackResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return p.packer.Pack(ctx, pack.OptionsFromConfig(cfg, root))
}

// Languages returns the names of all known languages.
func (p *Packer) Languages() []string {
	configs := p.manager.Registry().Languages()
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	return names
}

// Close releases every parser and query. It is safe to call more than once.
func (p *Packer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.manager.Dispose()
	p.logger.Debug("packer closed")
	return nil
}
