package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanpack/internal/config"
)

func TestProjectConfigTemplate_MatchesDefaults(t *testing.T) {
	// Given: the template written as a project config
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".amanpack.yaml"), []byte(ProjectConfigTemplate), 0644))

	// When: loading it
	cfg, err := config.Load(dir)

	// Then: it yields the built-in defaults
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}
