package watcher

import (
	"log/slog"
	"strings"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
	// OpIgnoreChange indicates an ignore file (.gitignore, .amanpackignore)
	// changed. Cached ignore rules must be dropped before the next pack.
	OpIgnoreChange
	// OpConfigChange indicates a project config file changed.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpIgnoreChange:
		return "IGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change under the watched root.
type FileEvent struct {
	// Path is the root-relative slash path.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Filter reports whether a root-relative slash path should be skipped.
// Skipped directories are not descended into.
type Filter func(relPath string, isDir bool) bool

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 300ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode.
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the number of batches buffered for the consumer.
	// Default: 16
	EventBufferSize int

	// Filter drops paths that cannot affect the result. Nil keeps
	// everything except version control directories.
	Filter Filter

	// IgnoreFiles are base names reported as OpIgnoreChange.
	// Default: .gitignore, .amanpackignore
	IgnoreFiles []string

	// ConfigFiles are base names reported as OpConfigChange.
	ConfigFiles []string

	// ForcePolling skips fsnotify.
	ForcePolling bool

	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  300 * time.Millisecond,
		PollInterval:    2 * time.Second,
		EventBufferSize: 16,
		IgnoreFiles:     []string{".gitignore", ".amanpackignore"},
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.IgnoreFiles == nil {
		o.IgnoreFiles = defaults.IgnoreFiles
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

var vcsDirs = []string{".git", ".hg", ".svn"}

// isVCSPath reports whether relPath is the root itself or lies inside a
// version control directory.
func isVCSPath(relPath string) bool {
	if relPath == "" || relPath == "." {
		return true
	}
	for _, dir := range vcsDirs {
		if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}
	return false
}

// skip applies the version control rule and then the caller's filter.
func (o Options) skip(relPath string, isDir bool) bool {
	return isVCSPath(relPath) || o.Filter != nil && o.Filter(relPath, isDir)
}

// classify maps a raw operation on relPath to the operation reported.
func (o Options) classify(relPath string, op Operation) Operation {
	base := relPath[strings.LastIndex(relPath, "/")+1:]
	for _, name := range o.IgnoreFiles {
		if base == name {
			return OpIgnoreChange
		}
	}
	// Only the root config is loaded.
	if base == relPath {
		for _, name := range o.ConfigFiles {
			if base == name {
				return OpConfigChange
			}
		}
	}
	return op
}
