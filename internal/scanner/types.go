// Package scanner discovers the files amanpack packs. It walks a project
// directory and applies include and exclude globs, .gitignore and
// .amanpackignore rules, sensitive file patterns, a size limit and binary
// detection.
package scanner

import (
	"time"
)

// IgnoreFileName is the amanpack-specific ignore file. It uses gitignore
// syntax and is honoured even when RespectGitignore is off.
const IgnoreFileName = ".amanpackignore"

// DefaultMaxFileSize is the default maximum file size (50MB).
const DefaultMaxFileSize = 50 * 1024 * 1024

// FileInfo contains metadata about a discovered file.
type FileInfo struct {
	Path    string    // Slash-separated path relative to the root
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the directory to scan.
	RootDir string

	// IncludePatterns restricts results to matching paths (empty = all).
	IncludePatterns []string

	// ExcludePatterns removes matching paths and prunes matching directories.
	ExcludePatterns []string

	// RespectGitignore enables .gitignore parsing.
	RespectGitignore bool

	// MaxFileSize is the maximum file size in bytes (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// FollowSymlinks enables following symbolic links to files.
	FollowSymlinks bool
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// Sensitive file patterns that are never packed.
var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*credentials*",
	"*secrets*",
	".netrc",
	".npmrc",
	".pypirc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}

// Directories that are always skipped.
var alwaysExcludeDirs = []string{
	".git",
	".hg",
	".svn",
}
