package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanpack/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{"default", nil, func(t *testing.T, out string) {
			assert.Contains(t, out, "amanpack "+version.Version)
			assert.Contains(t, out, "commit")
		}},
		{"short", []string{"--short"}, func(t *testing.T, out string) {
			assert.Equal(t, version.Version, strings.TrimSpace(out))
		}},
		{"full", []string{"--full"}, func(t *testing.T, out string) {
			assert.Contains(t, out, "git commit:")
		}},
		{"json", []string{"--json"}, func(t *testing.T, out string) {
			var info map[string]string
			require.NoError(t, json.Unmarshal([]byte(out), &info))
			assert.Equal(t, version.Version, info["version"])
			assert.Contains(t, info, "go_version")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, context.Background(), append([]string{"version"}, tt.args...)...)
			require.NoError(t, err)
			tt.check(t, stdout)
		})
	}
}

func TestLanguagesCmd_JSON(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "languages", "--json")
	require.NoError(t, err)

	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))

	byName := make(map[string]languageRow)
	for _, r := range rows {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "go")
	assert.True(t, byName["go"].Structural)
	assert.Contains(t, byName["go"].Extensions, ".go")
}

func TestLanguagesCmd_Table(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "languages")

	require.NoError(t, err)
	assert.Contains(t, stdout, "languages")
	assert.Contains(t, stdout, "python")
}

func TestConfigCmd_HasSubcommands(t *testing.T) {
	configCmd, _, err := NewRootCmd().Find([]string{"config"})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
	assert.True(t, names["path"])
}

func TestConfigInit_WritesDefaultsOnce(t *testing.T) {
	// Given: an empty project
	dir := t.TempDir()
	path := filepath.Join(dir, ".amanpack.yaml")

	// When: running config init twice
	_, _, err := execute(t, context.Background(), "config", "init", dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("output:\n  style: plain\n"), 0644))
	stdout, _, err := execute(t, context.Background(), "config", "init", dir)

	// Then: the second run keeps the edited file
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output:\n  style: plain\n", string(data))

	_, _, err = execute(t, context.Background(), "config", "init", dir, "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# amanpack project configuration")
	assert.Contains(t, string(data), "style: xml")
}

func TestConfigInit_Effective(t *testing.T) {
	// Given: a project whose environment selects markdown
	t.Setenv("AMANPACK_STYLE", "markdown")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	// When: writing the effective configuration
	_, _, err := execute(t, context.Background(), "config", "init", dir, "--effective")

	// Then: the override is persisted
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, ".amanpack.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "style: markdown")
	assert.NotContains(t, string(data), "#")
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.toml"), []byte("[output]\nstyle = \"markdown\"\n"), 0644))

	stdout, _, err := execute(t, context.Background(), "config", "show", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "style: markdown")

	stdout, _, err = execute(t, context.Background(), "config", "show", dir, "--json")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "markdown", cfg["output"].(map[string]any)["style"])
}

func TestServeCmd_HasTransportFlag(t *testing.T) {
	serveCmd, _, err := NewRootCmd().Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("transport")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestRunServe_UnknownTransport(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := runServe(context.Background(), t.TempDir(), "sse")

	assert.ErrorContains(t, err, "unknown transport")
}

func TestLogsCmd_TailsExplicitFile(t *testing.T) {
	// Given: a log with entries at several levels
	path := filepath.Join(t.TempDir(), "amanpack.log")
	log := `{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"pack complete"}
{"time":"2026-01-02T10:00:01Z","level":"ERROR","msg":"write failed"}
`
	require.NoError(t, os.WriteFile(path, []byte(log), 0644))

	// When: showing warnings and above
	stdout, stderr, err := execute(t, context.Background(), "logs", "--file", path, "--level", "warn")

	// Then: only the error is printed
	require.NoError(t, err)
	assert.Contains(t, stderr, path)
	assert.Contains(t, stdout, "write failed")
	assert.NotContains(t, stdout, "pack complete")
}

func TestLogsCmd_InvalidFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amanpack.log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, _, err := execute(t, context.Background(), "logs", "--file", path, "--filter", "(")

	assert.ErrorContains(t, err, "invalid filter pattern")
}
