package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by walking the root on an interval.
// Used when fsnotify is unavailable.
type PollingWatcher struct {
	interval  time.Duration
	skip      func(relPath string, isDir bool) bool
	logger    *slog.Logger
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a polling watcher. skip may be nil.
func NewPollingWatcher(interval time.Duration, skip func(relPath string, isDir bool) bool, logger *slog.Logger) *PollingWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollingWatcher{
		interval:  interval,
		skip:      skip,
		logger:    logger,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 256),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start records a baseline and then polls until Stop or ctx is cancelled.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.mu.Lock()
	p.rootPath = absPath
	p.mu.Unlock()

	state, err := p.snapshot()
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}
	p.mu.Lock()
	p.fileState = state
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				p.emitError(err)
			}
		}
	}
}

// Stop stops the polling watcher. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of non-fatal errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// snapshot walks the root, honoring skip.
func (p *PollingWatcher) snapshot() (map[string]fileSnapshot, error) {
	state := make(map[string]fileSnapshot)
	err := filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.rootPath {
				return err
			}
			return nil
		}
		relPath, err := filepath.Rel(p.rootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if p.skip != nil && p.skip(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		state[relPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
	return state, err
}

// detectChanges diffs a new snapshot against the previous one.
func (p *PollingWatcher) detectChanges() error {
	current, err := p.snapshot()
	if err != nil {
		return fmt.Errorf("walk directory for changes: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for path, snap := range current {
		prev, exists := p.fileState[path]
		switch {
		case !exists:
			p.emitEvent(FileEvent{Path: path, Operation: OpCreate, IsDir: snap.isDir, Timestamp: now})
		case !snap.isDir && (prev.modTime != snap.modTime || prev.size != snap.size):
			p.emitEvent(FileEvent{Path: path, Operation: OpModify, Timestamp: now})
		}
	}
	for path, snap := range p.fileState {
		if _, exists := current[path]; !exists {
			p.emitEvent(FileEvent{Path: path, Operation: OpDelete, IsDir: snap.isDir, Timestamp: now})
		}
	}
	p.fileState = current
	return nil
}

// emitEvent sends an event without blocking. Must be called with the lock
// held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()))
	}
}

func (p *PollingWatcher) emitError(err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return
	}
	select {
	case p.errors <- err:
	default:
	}
}
