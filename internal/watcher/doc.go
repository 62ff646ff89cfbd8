// Package watcher reports file system changes under a project root so a
// pack can be rebuilt when its inputs change.
//
// A HybridWatcher uses fsnotify and falls back to polling where fsnotify is
// unavailable (network mounts, some container volumes). Events are
// debounced so that editor saves and git checkouts produce one batch, and
// filtered through a caller-supplied Filter so that excluded paths and the
// pack's own output never trigger a rebuild.
//
// Usage:
//
//	err := watcher.Run(ctx, root, watcher.Options{Filter: skip},
//	    func(ctx context.Context, events []watcher.FileEvent) error {
//	        return repack(ctx)
//	    })
package watcher
