package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// source produces raw, undebounced events for one watch root.
type source interface {
	// watch blocks until ctx is done or the source is closed.
	watch(ctx context.Context, root string, emit func(FileEvent), fail func(error)) error
	close() error
	name() string
}

// HybridWatcher watches a directory tree with fsnotify, or by polling when
// fsnotify cannot be created. Raw events are filtered, classified and
// debounced into batches.
type HybridWatcher struct {
	src       source
	opts      Options
	logger    *slog.Logger
	debouncer *Debouncer

	events chan []FileEvent
	errors chan error
	done   chan struct{}

	mu      sync.RWMutex
	stopped bool
	dropped atomic.Uint64
}

// NewHybridWatcher creates a watcher. It never fails when polling is
// available as a fallback.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()
	h := &HybridWatcher{
		opts:      opts,
		logger:    opts.Logger,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.Logger),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.src = &notifySource{fsw: fsw, skip: h.skip, logger: h.logger}
			return h, nil
		}
		h.logger.Warn("fsnotify unavailable, falling back to polling",
			slog.String("error", err.Error()))
	}
	h.src = &pollSource{poller: NewPollingWatcher(opts.PollInterval, h.skip, opts.Logger)}
	return h, nil
}

// Start watches root until Stop is called or ctx is cancelled. It blocks.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", abs)
	}

	go h.forward(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-h.done:
			cancel()
		case <-watchCtx.Done():
		}
	}()

	err = h.src.watch(watchCtx, abs, h.add, h.emitError)
	select {
	case <-h.done:
		return nil
	default:
	}
	if ctx.Err() != nil {
		_ = h.Stop()
	}
	return err
}

// add filters, classifies and debounces one raw event.
func (h *HybridWatcher) add(event FileEvent) {
	if h.skip(event.Path, event.IsDir) {
		return
	}
	event.Operation = h.opts.classify(event.Path, event.Operation)
	h.debouncer.Add(event)
}

// skip applies Options.skip, except that ignore and config files are only
// subject to the version control rule.
func (h *HybridWatcher) skip(relPath string, isDir bool) bool {
	if !isDir {
		switch h.opts.classify(relPath, OpModify) {
		case OpIgnoreChange, OpConfigChange:
			return isVCSPath(relPath)
		}
	}
	return h.opts.skip(relPath, isDir)
}

// forward moves debounced batches to the public channel.
func (h *HybridWatcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case batch, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) > 0 {
				h.emitEvents(batch)
			}
		}
	}
}

// emitEvents sends a batch without blocking. A full buffer drops the batch.
func (h *HybridWatcher) emitEvents(batch []FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	select {
	case h.events <- batch:
	default:
		total := h.dropped.Add(1)
		h.logger.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", total))
	}
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
	}
}

// DroppedBatches returns the number of batches dropped on a full buffer.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.dropped.Load()
}

// Stop stops the watcher and closes its channels. Safe to call multiple
// times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.done)

	h.debouncer.Stop()
	_ = h.src.close()

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of debounced batches.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of non-fatal errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns "fsnotify" or "polling".
func (h *HybridWatcher) WatcherType() string {
	return h.src.name()
}

// notifySource registers every non-skipped directory with fsnotify and
// converts its events to root-relative FileEvents.
type notifySource struct {
	fsw    *fsnotify.Watcher
	skip   func(relPath string, isDir bool) bool
	logger *slog.Logger
	root   string
}

func (s *notifySource) name() string { return "fsnotify" }

func (s *notifySource) close() error { return s.fsw.Close() }

func (s *notifySource) watch(ctx context.Context, root string, emit func(FileEvent), fail func(error)) error {
	s.root = root
	if err := s.register(root); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.fsw.Events:
			if !ok {
				return nil
			}
			if fe, ok := s.convert(ev, fail); ok {
				emit(fe)
			}
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return nil
			}
			fail(err)
		}
	}
}

func (s *notifySource) convert(ev fsnotify.Event, fail func(error)) (FileEvent, bool) {
	rel, err := filepath.Rel(s.root, ev.Name)
	if err != nil {
		return FileEvent{}, false
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreate
		// mkdir -p and checkouts create children before we see the parent.
		if isDir && !s.skip(rel, true) {
			if err := s.register(ev.Name); err != nil {
				fail(err)
			}
		}
	case ev.Has(fsnotify.Write):
		op = OpModify
	case ev.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Has(fsnotify.Rename):
		op = OpRename
	default:
		return FileEvent{}, false
	}
	return FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()}, true
}

// register adds dir and every non-skipped directory below it.
func (s *notifySource) register(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			s.logger.Debug("skipping unreadable directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(s.root, path)
		rel = filepath.ToSlash(rel)
		if rel != "." && s.skip(rel, true) {
			return filepath.SkipDir
		}
		return s.fsw.Add(path)
	})
}

// pollSource adapts PollingWatcher to the source contract.
type pollSource struct {
	poller *PollingWatcher
}

func (s *pollSource) name() string { return "polling" }

func (s *pollSource) close() error { return s.poller.Stop() }

func (s *pollSource) watch(ctx context.Context, root string, emit func(FileEvent), fail func(error)) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-s.poller.Events():
				if !ok {
					return
				}
				emit(ev)
			case err, ok := <-s.poller.Errors():
				if !ok {
					return
				}
				fail(err)
			}
		}
	}()
	return s.poller.Start(ctx, root)
}
