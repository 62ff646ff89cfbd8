package mcp

import (
	"path/filepath"
	"strings"
)

// languageMimeTypes maps registry language names to MIME types.
var languageMimeTypes = map[string]string{
	"go":         "text/x-go",
	"python":     "text/x-python",
	"javascript": "text/javascript",
	"typescript": "text/typescript",
	"tsx":        "text/typescript",
	"rust":       "text/x-rust",
	"java":       "text/x-java",
	"c":          "text/x-c",
	"cpp":        "text/x-c++",
	"csharp":     "text/x-csharp",
	"ruby":       "text/x-ruby",
	"php":        "text/x-php",
	"swift":      "text/x-swift",
	"css":        "text/css",
	"html":       "text/html",
	"vue":        "text/x-vue",
	"svelte":     "text/x-svelte",
	"markdown":   "text/markdown",
}

// extensionMimeTypes covers files outside the language registry.
var extensionMimeTypes = map[string]string{
	".json": "application/json",
	".yaml": "text/x-yaml",
	".yml":  "text/x-yaml",
	".toml": "text/x-toml",
	".xml":  "text/xml",
	".sh":   "text/x-sh",
	".sql":  "text/x-sql",
	".txt":  "text/plain",
}

// MimeType returns the MIME type for a file, preferring the detected
// language. Unknown files are text/plain.
func MimeType(language, path string) string {
	if mime, ok := languageMimeTypes[language]; ok {
		return mime
	}
	if mime, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "text/plain"
}
