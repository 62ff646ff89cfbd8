package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output styles.
const (
	StylePlain    = "plain"
	StyleMarkdown = "markdown"
	StyleXML      = "xml"
)

// Project configuration file names, in lookup order.
var projectConfigFiles = []string{".amanpack.yaml", ".amanpack.yml", ".amanpack.toml"}

// ProjectConfigFiles returns the project config file names in lookup order.
func ProjectConfigFiles() []string {
	return append([]string(nil), projectConfigFiles...)
}

// Config represents the complete amanpack configuration.
type Config struct {
	Version     int               `yaml:"version" toml:"version" json:"version"`
	Output      OutputConfig      `yaml:"output" toml:"output" json:"output"`
	Compression CompressionConfig `yaml:"compression" toml:"compression" json:"compression"`
	Paths       PathsConfig       `yaml:"paths" toml:"paths" json:"paths"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance" json:"performance"`
	Grammars    GrammarsConfig    `yaml:"grammars" toml:"grammars" json:"grammars"`
	Server      ServerConfig      `yaml:"server" toml:"server" json:"server"`
}

// OutputConfig configures the packed output document.
type OutputConfig struct {
	// Style is one of plain, markdown or xml.
	Style string `yaml:"style" toml:"style" json:"style"`
	// FilePath is where the output is written. Empty writes to stdout;
	// a .gz suffix gzips the output.
	FilePath           string `yaml:"file_path" toml:"file_path" json:"file_path"`
	HeaderText         string `yaml:"header_text" toml:"header_text" json:"header_text"`
	FileSummary        bool   `yaml:"file_summary" toml:"file_summary" json:"file_summary"`
	DirectoryStructure bool   `yaml:"directory_structure" toml:"directory_structure" json:"directory_structure"`
	ShowLineNumbers    bool   `yaml:"show_line_numbers" toml:"show_line_numbers" json:"show_line_numbers"`
	ParsableStyle      bool   `yaml:"parsable_style" toml:"parsable_style" json:"parsable_style"`
}

// CompressionConfig configures per-file content reduction.
// Compress and LineLimit are mutually exclusive per file; Compress wins.
type CompressionConfig struct {
	Compress          bool `yaml:"compress" toml:"compress" json:"compress"`
	RemoveComments    bool `yaml:"remove_comments" toml:"remove_comments" json:"remove_comments"`
	RemoveEmptyLines  bool `yaml:"remove_empty_lines" toml:"remove_empty_lines" json:"remove_empty_lines"`
	LineLimit         int  `yaml:"line_limit" toml:"line_limit" json:"line_limit"`
	ShowIndicators    bool `yaml:"show_indicators" toml:"show_indicators" json:"show_indicators"`
	PreserveStructure bool `yaml:"preserve_structure" toml:"preserve_structure" json:"preserve_structure"`
	EnableCaching     bool `yaml:"enable_caching" toml:"enable_caching" json:"enable_caching"`
}

// PathsConfig configures which paths to include and exclude.
type PathsConfig struct {
	Include          []string `yaml:"include" toml:"include" json:"include"`
	Exclude          []string `yaml:"exclude" toml:"exclude" json:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore" toml:"respect_gitignore" json:"respect_gitignore"`
	MaxFileSize      int64    `yaml:"max_file_size" toml:"max_file_size" json:"max_file_size"`
}

// PerformanceConfig configures concurrency and caching.
type PerformanceConfig struct {
	// Workers is the worker pool size; 0 derives it from the file count.
	Workers       int    `yaml:"workers" toml:"workers" json:"workers"`
	CacheSize     int    `yaml:"cache_size" toml:"cache_size" json:"cache_size"`
	WatchDebounce string `yaml:"watch_debounce" toml:"watch_debounce" json:"watch_debounce"`
}

// GrammarsConfig configures external grammar libraries.
type GrammarsConfig struct {
	Dir string `yaml:"dir" toml:"dir" json:"dir"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" toml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig returns a configuration with defaults applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Output: OutputConfig{
			Style:              StyleXML,
			FileSummary:        true,
			DirectoryStructure: true,
		},
		Paths: PathsConfig{
			Exclude:          append([]string(nil), defaultExcludePatterns...),
			RespectGitignore: true,
			MaxFileSize:      50 * 1024 * 1024,
		},
		Performance: PerformanceConfig{
			CacheSize:     1024,
			WatchDebounce: "300ms",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/amanpack/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/amanpack/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "amanpack", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "amanpack", "config.yaml")
	}
	return filepath.Join(home, ".config", "amanpack", "config.yaml")
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/amanpack/config.yaml)
//  3. Project config (.amanpack.yaml, .amanpack.yml or .amanpack.toml)
//  4. .env in the project root (never overrides the real environment)
//  5. Environment variables (AMANPACK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadFile(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	for _, name := range projectConfigFiles {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		break
	}

	dotenv, err := readDotEnv(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(envLookup(dotenv)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML or TOML file over c. Fields absent from the file
// keep their current values; exclude patterns are appended to the defaults.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	excludes := c.Paths.Exclude
	c.Paths.Exclude = nil

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			c.Paths.Exclude = excludes
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			c.Paths.Exclude = excludes
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	c.Paths.Exclude = appendUnique(excludes, c.Paths.Exclude...)
	return nil
}

func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, ".env")
	if !fileExists(path) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// envLookup resolves a variable from the process environment first, then
// from the .env values. An empty process value counts as unset.
func envLookup(dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return dotenv[key]
	}
}

// applyEnvOverrides applies AMANPACK_* variables. Empty values are ignored.
func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	if v := getenv("AMANPACK_STYLE"); v != "" {
		c.Output.Style = strings.ToLower(v)
	}
	if v := getenv("AMANPACK_OUTPUT"); v != "" {
		c.Output.FilePath = v
	}
	if v := getenv("AMANPACK_GRAMMAR_DIR"); v != "" {
		c.Grammars.Dir = v
	}
	if v := getenv("AMANPACK_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = strings.ToLower(v)
	}
	if v := getenv("AMANPACK_TRANSPORT"); v != "" {
		c.Server.Transport = strings.ToLower(v)
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"AMANPACK_COMPRESS", &c.Compression.Compress},
		{"AMANPACK_REMOVE_COMMENTS", &c.Compression.RemoveComments},
		{"AMANPACK_REMOVE_EMPTY_LINES", &c.Compression.RemoveEmptyLines},
		{"AMANPACK_SHOW_INDICATORS", &c.Compression.ShowIndicators},
	}
	for _, b := range bools {
		v := getenv(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"AMANPACK_LINE_LIMIT", &c.Compression.LineLimit},
		{"AMANPACK_WORKERS", &c.Performance.Workers},
	}
	for _, i := range ints {
		v := getenv(i.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = parsed
	}

	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch c.Output.Style {
	case StylePlain, StyleMarkdown, StyleXML:
	default:
		return fmt.Errorf("output.style must be 'plain', 'markdown' or 'xml', got %s", c.Output.Style)
	}

	if c.Compression.LineLimit < 0 {
		return fmt.Errorf("compression.line_limit must be non-negative, got %d", c.Compression.LineLimit)
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must be non-negative, got %d", c.Performance.Workers)
	}
	if c.Performance.CacheSize < 0 {
		return fmt.Errorf("performance.cache_size must be non-negative, got %d", c.Performance.CacheSize)
	}
	if c.Paths.MaxFileSize < 0 {
		return fmt.Errorf("paths.max_file_size must be non-negative, got %d", c.Paths.MaxFileSize)
	}
	if c.Performance.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Performance.WatchDebounce); err != nil {
			return fmt.Errorf("performance.watch_debounce: %w", err)
		}
	}

	if c.Server.Transport != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WatchDebounceDuration returns the parsed debounce interval.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Performance.WatchDebounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or an amanpack config file by walking up
// the directory tree.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		for _, name := range projectConfigFiles {
			if fileExists(filepath.Join(currentDir, name)) {
				return currentDir, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func appendUnique(base []string, items ...string) []string {
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[b] = true
	}
	for _, item := range items {
		if !seen[item] {
			base = append(base, item)
			seen[item] = true
		}
	}
	return base
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
