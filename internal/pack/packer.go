package pack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/amanpack/internal/render"
	"github.com/Aman-CERP/amanpack/internal/scanner"
)

// filesPerWorker is the number of pending files that justifies one more
// worker.
const filesPerWorker = 100

// Reporter receives progress events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Start(total int)
	FileDone(path string)
	Finish()
}

type nopReporter struct{}

func (nopReporter) Start(int)       {}
func (nopReporter) FileDone(string) {}
func (nopReporter) Finish()         {}

// Skipped is a file that could not be read or processed.
type Skipped struct {
	Path string
	Err  error
}

// Result summarizes a pack run.
type Result struct {
	Files   []FileResult
	Skipped []Skipped
	Stats   render.Stats
	// Document holds the rendered output when Options.OutputPath is empty.
	Document   []byte
	OutputPath string
	Workers    int
	Duration   time.Duration
}

// Packer runs pack operations. It is safe for concurrent use.
type Packer struct {
	scanner   *scanner.Scanner
	processor *Processor
	logger    *slog.Logger
	reporter  Reporter
}

// Option configures a Packer.
type Option func(*Packer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Packer) { p.logger = l }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Packer) { p.reporter = r }
}

// New creates a Packer over a processor.
func New(processor *Processor, opts ...Option) (*Packer, error) {
	p := &Packer{
		processor: processor,
		logger:    slog.Default(),
		reporter:  nopReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}

	s, err := scanner.New(p.logger)
	if err != nil {
		return nil, err
	}
	p.scanner = s
	return p, nil
}

// Scanner returns the scanner used for discovery.
func (p *Packer) Scanner() *scanner.Scanner {
	return p.scanner
}

// WorkerCount returns the pool size for n pending files: one worker per
// hundred files, at least one and at most the number of CPUs. A positive
// configured value is used as is.
func WorkerCount(files, configured int) int {
	if configured > 0 {
		return configured
	}
	workers := (files + filesPerWorker - 1) / filesPerWorker
	return max(1, min(workers, runtime.NumCPU()))
}

// Pack scans opts.Scan.RootDir, processes every file and renders the
// document. When opts.OutputPath is set the document is written there;
// otherwise it is returned in Result.Document.
func (p *Packer) Pack(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	files, err := p.scanner.ScanAll(ctx, &opts.Scan)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	files = withoutOutputArtifacts(files, opts)

	result, err := p.Process(ctx, files, opts)
	if err != nil {
		return nil, err
	}

	renderOpts := opts.Render
	renderOpts.Notes = append(append([]string(nil), renderOpts.Notes...), opts.notes()...)
	docs := make([]render.File, len(result.Files))
	for i, f := range result.Files {
		docs[i] = render.File{Path: f.Path, Content: f.Content, Language: f.Language}
	}

	if opts.OutputPath == "" {
		var buf bytes.Buffer
		stats, err := render.Render(&buf, docs, renderOpts)
		if err != nil {
			return nil, fmt.Errorf("render failed: %w", err)
		}
		result.Stats = stats
		result.Document = buf.Bytes()
	} else {
		err := WriteFile(opts.OutputPath, func(w io.Writer) error {
			stats, err := render.Render(w, docs, renderOpts)
			result.Stats = stats
			return err
		})
		if err != nil {
			return nil, err
		}
		result.OutputPath = opts.OutputPath
	}

	result.Duration = time.Since(start)
	p.logger.Info("pack complete",
		slog.String("root", opts.Scan.RootDir),
		slog.Int("files", len(result.Files)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("workers", result.Workers),
		slog.Int("tokens", result.Stats.Tokens),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// Process reads and reduces files on a bounded worker pool. Results are
// sorted by path. Read and processing failures are collected in
// Result.Skipped; cancellation and fatal errors stop the pool.
func (p *Packer) Process(ctx context.Context, files []*scanner.FileInfo, opts Options) (*Result, error) {
	workers := WorkerCount(len(files), opts.Workers)
	result := &Result{Workers: workers}

	p.reporter.Start(len(files))
	defer p.reporter.Finish()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer p.reporter.FileDone(file.Path)

			data, err := os.ReadFile(file.AbsPath)
			if err != nil {
				p.logger.Warn("failed to read file",
					slog.String("path", file.Path),
					slog.String("error", err.Error()))
				mu.Lock()
				result.Skipped = append(result.Skipped, Skipped{Path: file.Path, Err: err})
				mu.Unlock()
				return nil
			}

			fr, err := p.processor.ProcessFile(gctx, file.Path, string(data), opts)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Path, err)
			}

			mu.Lock()
			result.Files = append(result.Files, fr)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].Path < result.Skipped[j].Path })
	return result, nil
}

// withoutOutputArtifacts drops the output file and its lock and temporary
// siblings when they live under the root.
func withoutOutputArtifacts(files []*scanner.FileInfo, opts Options) []*scanner.FileInfo {
	if opts.OutputPath == "" {
		return files
	}
	kept := files[:0]
	for _, f := range files {
		if !isOutputArtifact(opts, f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}
