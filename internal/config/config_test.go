package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points user config lookup at an empty directory and clears
// AMANPACK_* variables that could leak in from the host.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"AMANPACK_STYLE", "AMANPACK_OUTPUT", "AMANPACK_COMPRESS",
		"AMANPACK_REMOVE_COMMENTS", "AMANPACK_REMOVE_EMPTY_LINES",
		"AMANPACK_SHOW_INDICATORS", "AMANPACK_LINE_LIMIT", "AMANPACK_WORKERS",
		"AMANPACK_GRAMMAR_DIR", "AMANPACK_LOG_LEVEL", "AMANPACK_TRANSPORT",
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, StyleXML, cfg.Output.Style)
	assert.True(t, cfg.Output.FileSummary)
	assert.True(t, cfg.Output.DirectoryStructure)
	assert.False(t, cfg.Compression.Compress)
	assert.Equal(t, 0, cfg.Compression.LineLimit)
	assert.True(t, cfg.Paths.RespectGitignore)
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/.git/**")
	assert.Equal(t, 1024, cfg.Performance.CacheSize)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	// Given: an empty project directory
	isolate(t)
	dir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: defaults are returned
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a project YAML config with a subset of fields
	isolate(t)
	dir := t.TempDir()
	content := `
output:
  style: markdown
compression:
  compress: true
  line_limit: 120
paths:
  exclude:
    - "**/testdata/**"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte(content), 0644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: file values win and absent fields keep their defaults
	require.NoError(t, err)
	assert.Equal(t, StyleMarkdown, cfg.Output.Style)
	assert.True(t, cfg.Output.FileSummary)
	assert.True(t, cfg.Compression.Compress)
	assert.Equal(t, 120, cfg.Compression.LineLimit)
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/testdata/**")
}

func TestLoad_TomlFile_OverridesDefaults(t *testing.T) {
	// Given: a project TOML config
	isolate(t)
	dir := t.TempDir()
	content := `
[output]
style = "plain"

[performance]
workers = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.toml"), []byte(content), 0644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: TOML values are applied
	require.NoError(t, err)
	assert.Equal(t, StylePlain, cfg.Output.Style)
	assert.Equal(t, 3, cfg.Performance.Workers)
	assert.Equal(t, 1024, cfg.Performance.CacheSize)
}

func TestLoad_YamlWinsOverToml(t *testing.T) {
	// Given: both YAML and TOML project configs
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte("output:\n  style: markdown\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.toml"), []byte("[output]\nstyle = \"plain\"\n"), 0644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: only the first file in lookup order is used
	require.NoError(t, err)
	assert.Equal(t, StyleMarkdown, cfg.Output.Style)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: malformed YAML
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte("output: [unclosed\n"), 0644))

	// When: loading configuration
	_, err := Load(dir)

	// Then: a parse error is returned
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_InvalidValues_FailValidation(t *testing.T) {
	// Given: an unknown output style
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte("output:\n  style: html\n"), 0644))

	// When: loading configuration
	_, err := Load(dir)

	// Then: validation rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.style")
}

func TestLoad_UserConfig_AppliedBeforeProject(t *testing.T) {
	// Given: a user config and a project config touching different fields
	xdg := t.TempDir()
	isolate(t)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	userDir := filepath.Join(xdg, "amanpack")
	require.NoError(t, os.MkdirAll(userDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"),
		[]byte("output:\n  style: plain\ncompression:\n  remove_comments: true\n"), 0644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte("output:\n  style: markdown\n"), 0644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: project overrides user, user overrides defaults
	require.NoError(t, err)
	assert.Equal(t, StyleMarkdown, cfg.Output.Style)
	assert.True(t, cfg.Compression.RemoveComments)
}

func TestLoad_EnvOverrides(t *testing.T) {
	// Given: AMANPACK_* variables
	isolate(t)
	dir := t.TempDir()
	t.Setenv("AMANPACK_STYLE", "PLAIN")
	t.Setenv("AMANPACK_COMPRESS", "true")
	t.Setenv("AMANPACK_LINE_LIMIT", "50")
	t.Setenv("AMANPACK_WORKERS", "2")
	t.Setenv("AMANPACK_GRAMMAR_DIR", "/opt/grammars")

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: environment wins
	require.NoError(t, err)
	assert.Equal(t, StylePlain, cfg.Output.Style)
	assert.True(t, cfg.Compression.Compress)
	assert.Equal(t, 50, cfg.Compression.LineLimit)
	assert.Equal(t, 2, cfg.Performance.Workers)
	assert.Equal(t, "/opt/grammars", cfg.Grammars.Dir)
}

func TestLoad_InvalidEnvValue_ReturnsError(t *testing.T) {
	// Given: a non-numeric line limit
	isolate(t)
	t.Setenv("AMANPACK_LINE_LIMIT", "lots")

	// When: loading configuration
	_, err := Load(t.TempDir())

	// Then: the variable name is reported
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMANPACK_LINE_LIMIT")
}

func TestLoad_DotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	// Given: a .env file and a conflicting process variable
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("AMANPACK_STYLE=markdown\nAMANPACK_LINE_LIMIT=40\n"), 0644))
	t.Setenv("AMANPACK_STYLE", "plain")
	require.NoError(t, os.Unsetenv("AMANPACK_LINE_LIMIT"))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: the process environment wins and .env fills the gaps
	require.NoError(t, err)
	assert.Equal(t, StylePlain, cfg.Output.Style)
	assert.Equal(t, 40, cfg.Compression.LineLimit)
}

func TestValidate_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative line limit", func(c *Config) { c.Compression.LineLimit = -1 }, "line_limit"},
		{"negative workers", func(c *Config) { c.Performance.Workers = -2 }, "workers"},
		{"negative cache", func(c *Config) { c.Performance.CacheSize = -1 }, "cache_size"},
		{"negative max size", func(c *Config) { c.Paths.MaxFileSize = -1 }, "max_file_size"},
		{"bad debounce", func(c *Config) { c.Performance.WatchDebounce = "soon" }, "watch_debounce"},
		{"bad transport", func(c *Config) { c.Server.Transport = "sse" }, "transport"},
		{"bad level", func(c *Config) { c.Server.LogLevel = "verbose" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWatchDebounceDuration(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 300*time.Millisecond, cfg.WatchDebounceDuration())

	cfg.Performance.WatchDebounce = "2s"
	assert.Equal(t, 2*time.Second, cfg.WatchDebounceDuration())

	cfg.Performance.WatchDebounce = ""
	assert.Equal(t, 300*time.Millisecond, cfg.WatchDebounceDuration())
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	// Given: XDG_CONFIG_HOME is set
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	// Then: the path lives under it
	assert.Equal(t, filepath.Join("/custom/config", "amanpack", "config.yaml"), GetUserConfigPath())
}

func TestFindProjectRoot_FindsGitDir(t *testing.T) {
	// Given: a nested directory inside a git checkout
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	// When: searching from the nested directory
	found, err := FindProjectRoot(nested)

	// Then: the checkout root is returned
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_FindsConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".amanpack.toml"), nil, 0644))
	nested := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)

	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a customized config written to the project file
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Output.Style = StyleMarkdown
	cfg.Compression.LineLimit = 80
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".amanpack.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, StyleMarkdown, loaded.Output.Style)
	assert.Equal(t, 80, loaded.Compression.LineLimit)
	assert.ElementsMatch(t, cfg.Paths.Exclude, loaded.Paths.Exclude)
}

func TestProjectConfigFiles_ReturnsCopy(t *testing.T) {
	names := ProjectConfigFiles()
	require.Equal(t, []string{".amanpack.yaml", ".amanpack.yml", ".amanpack.toml"}, names)

	names[0] = "changed"
	assert.Equal(t, ".amanpack.yaml", ProjectConfigFiles()[0])
}
