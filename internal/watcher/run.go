package watcher

import (
	"context"
	"errors"
	"log/slog"
)

// Handler is called once per debounced batch.
type Handler func(ctx context.Context, events []FileEvent) error

// Run watches root and calls h for every batch until ctx is cancelled.
// Handler errors are logged and watching continues; cancellation returns
// nil. Batches are handled one at a time, so changes made while h runs are
// delivered in the next batch.
func Run(ctx context.Context, root string, opts Options, h Handler) error {
	opts = opts.WithDefaults()
	w, err := NewHybridWatcher(opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startErr := make(chan error, 1)
	go func() {
		startErr <- w.Start(ctx, root)
	}()

	opts.Logger.Info("watching for changes",
		slog.String("root", root),
		slog.String("mode", w.WatcherType()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			opts.Logger.Warn("watcher error", slog.String("error", err.Error()))
		case events, ok := <-w.Events():
			if !ok {
				return nil
			}
			opts.Logger.Debug("change batch", slog.Int("events", len(events)))
			if err := h(ctx, events); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				opts.Logger.Warn("change handler failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Has reports whether events contains an operation of kind op.
func Has(events []FileEvent, op Operation) bool {
	for _, e := range events {
		if e.Operation == op {
			return true
		}
	}
	return false
}
