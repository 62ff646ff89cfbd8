package watcher

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events into batches. Events for the same
// path within the window are merged:
//   - CREATE + MODIFY = CREATE
//   - CREATE + DELETE = nothing
//   - MODIFY + DELETE = DELETE
//   - DELETE + CREATE = MODIFY
//
// Ignore and config changes are never merged away.
type Debouncer struct {
	window  time.Duration
	logger  *slog.Logger
	pending map[string]*pendingEvent
	mu      sync.Mutex
	output  chan []FileEvent
	timer   *time.Timer
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Operation
}

// NewDebouncer creates a debouncer that emits a batch once no event has
// arrived for window.
func NewDebouncer(window time.Duration, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{
		window:  window,
		logger:  logger,
		pending: make(map[string]*pendingEvent),
		output:  make(chan []FileEvent, 10),
	}
}

// Add queues an event and restarts the quiet period.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[event.Path]; ok {
		merged, keep := coalesce(existing, event)
		if keep {
			existing.event = merged
		} else {
			delete(d.pending, event.Path)
		}
	} else {
		d.pending[event.Path] = &pendingEvent{event: event, firstOp: event.Operation}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// coalesce merges next into an existing pending event. keep is false when
// the two cancel out.
func coalesce(existing *pendingEvent, next FileEvent) (merged FileEvent, keep bool) {
	switch existing.event.Operation {
	case OpIgnoreChange, OpConfigChange:
		return existing.event, true
	}

	switch existing.firstOp {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			return existing.event, true
		case OpDelete:
			return FileEvent{}, false
		}
	case OpDelete:
		if next.Operation == OpCreate {
			next.Operation = OpModify
			return next, true
		}
	}
	return next, true
}

// flush emits all pending events sorted by path.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	events := make([]FileEvent, 0, len(d.pending))
	for _, pe := range d.pending {
		events = append(events, pe.event)
	}
	d.pending = make(map[string]*pendingEvent)
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	select {
	case d.output <- events:
	default:
		d.logger.Warn("debouncer output full, dropping batch",
			slog.Int("batch_size", len(events)))
	}
}

// Output returns the channel of debounced batches.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop stops the debouncer and closes the output channel. Pending events
// are discarded. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
