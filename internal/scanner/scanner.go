package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/amanpack/internal/ignore"
)

// ignoreCacheSize bounds the number of per-directory ignore matchers kept.
const ignoreCacheSize = 1000

// Scanner discovers packable files in a directory tree.
type Scanner struct {
	logger *slog.Logger

	// ignoreCache holds parsed ignore matchers by directory. A nil value
	// records a directory without ignore files.
	ignoreCache *lru.Cache[string, *ignore.Matcher]
	cacheMu     sync.RWMutex

	sensitive *ignore.Patterns
}

// New creates a new Scanner.
func New(logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, *ignore.Matcher](ignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignore cache: %w", err)
	}
	sensitive, err := ignore.NewPatterns(sensitiveFilePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sensitive patterns: %w", err)
	}
	return &Scanner{
		logger:      logger,
		ignoreCache: cache,
		sensitive:   sensitive,
	}, nil
}

// walkState is the per-scan compiled configuration.
type walkState struct {
	absRoot     string
	opts        *ScanOptions
	include     *ignore.Patterns
	exclude     *ignore.Patterns
	maxFileSize int64
}

// Scan discovers all packable files under opts.RootDir. Results stream on
// the returned channel, which is closed when the walk completes.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	state, err := s.prepare(opts)
	if err != nil {
		return nil, err
	}

	results := make(chan ScanResult, 64)
	go func() {
		defer close(results)
		s.walk(ctx, state, results)
	}()
	return results, nil
}

// ScanAll runs Scan to completion and returns the files sorted by path.
// The first walk error is returned.
func (s *Scanner) ScanAll(ctx context.Context, opts *ScanOptions) ([]*FileInfo, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	var firstErr error
	for r := range results {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		files = append(files, r.File)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Accept reports whether a single root-relative path would be included by a
// scan with opts. Used to filter watcher events without a full walk.
func (s *Scanner) Accept(opts *ScanOptions, relPath string) (bool, error) {
	state, err := s.prepare(opts)
	if err != nil {
		return false, err
	}
	relPath = filepath.ToSlash(relPath)
	if !s.matches(state, relPath, false) {
		return false, nil
	}

	info, err := os.Stat(filepath.Join(state.absRoot, filepath.FromSlash(relPath)))
	if err != nil || info.IsDir() {
		return false, nil
	}
	return info.Size() <= state.maxFileSize && !isBinaryFile(filepath.Join(state.absRoot, filepath.FromSlash(relPath))), nil
}

// Matches reports whether relPath passes the path rules of a scan with
// opts. Unlike Accept it does not look at the file, so it also answers for
// paths that were deleted.
func (s *Scanner) Matches(opts *ScanOptions, relPath string, isDir bool) (bool, error) {
	state, err := s.prepare(opts)
	if err != nil {
		return false, err
	}
	return s.matches(state, filepath.ToSlash(relPath), isDir), nil
}

func (s *Scanner) matches(state *walkState, relPath string, isDir bool) bool {
	for _, dir := range parentDirs(relPath) {
		if s.excludeDir(state, dir) {
			return false
		}
	}
	if isDir {
		return !s.excludeDir(state, relPath)
	}
	return !s.excludeFile(state, relPath)
}

func (s *Scanner) prepare(opts *ScanOptions) (*walkState, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	include, err := ignore.NewPatterns(opts.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exclude, err := ignore.NewPatterns(opts.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	return &walkState{
		absRoot:     absRoot,
		opts:        opts,
		include:     include,
		exclude:     exclude,
		maxFileSize: maxFileSize,
	}, nil
}

// walk performs the directory traversal.
func (s *Scanner) walk(ctx context.Context, state *walkState, results chan<- ScanResult) {
	err := filepath.WalkDir(state.absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(state.absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if s.excludeDir(state, relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !state.opts.FollowSymlinks {
				return nil
			}
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
		}

		if s.excludeFile(state, relPath) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil
		}
		if info.Size() > state.maxFileSize {
			s.logger.Debug("skipping large file",
				slog.String("path", relPath),
				slog.Int64("size", info.Size()))
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}

		file := &FileInfo{
			Path:    relPath,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case results <- ScanResult{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// excludeDir checks if a directory should be pruned.
func (s *Scanner) excludeDir(state *walkState, relPath string) bool {
	name := relPath[strings.LastIndex(relPath, "/")+1:]
	for _, skip := range alwaysExcludeDirs {
		if name == skip {
			return true
		}
	}
	if state.exclude.Match(relPath) {
		return true
	}
	return s.isIgnored(state, relPath, true)
}

// excludeFile checks if a file should be skipped.
func (s *Scanner) excludeFile(state *walkState, relPath string) bool {
	base := relPath[strings.LastIndex(relPath, "/")+1:]
	if base == IgnoreFileName {
		return true
	}
	if s.sensitive.Match(base) {
		return true
	}
	if state.exclude.MatchWithin(relPath) {
		return true
	}
	if state.include.Len() > 0 && !state.include.Match(relPath) {
		return true
	}
	return s.isIgnored(state, relPath, false)
}

// isIgnored checks the ignore files of the root and of every directory
// between the root and relPath.
func (s *Scanner) isIgnored(state *walkState, relPath string, isDir bool) bool {
	dirs := append([]string{""}, parentDirs(relPath)...)
	for _, base := range dirs {
		m := s.matcherFor(state, base)
		if m != nil && m.Match(relPath, isDir) {
			return true
		}
	}
	return false
}

// matcherFor gets or builds the ignore matcher for one directory.
func (s *Scanner) matcherFor(state *walkState, base string) *ignore.Matcher {
	dir := filepath.Join(state.absRoot, filepath.FromSlash(base))
	key := fmt.Sprintf("%s|%t", dir, state.opts.RespectGitignore)

	s.cacheMu.RLock()
	m, ok := s.ignoreCache.Get(key)
	s.cacheMu.RUnlock()
	if ok {
		return m
	}

	names := []string{IgnoreFileName}
	if state.opts.RespectGitignore {
		names = []string{".gitignore", IgnoreFileName}
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if m == nil {
			m = ignore.NewWithLogger(s.logger)
		}
		if err := m.AddFromFile(path, base); err != nil {
			s.logger.Warn("failed to read ignore file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	s.cacheMu.Lock()
	s.ignoreCache.Add(key, m)
	s.cacheMu.Unlock()

	return m
}

// InvalidateIgnoreCache clears cached ignore matchers. Call it when an
// ignore file changes.
func (s *Scanner) InvalidateIgnoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.ignoreCache.Purge()
}

// parentDirs returns the parent directories of a slash path, shortest first.
func parentDirs(relPath string) []string {
	var dirs []string
	for i := 0; i < len(relPath); i++ {
		if relPath[i] == '/' {
			dirs = append(dirs, relPath[:i])
		}
	}
	return dirs
}

// isBinaryFile checks if a file is binary by looking for null bytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
