package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/codeerr"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Project.Root)
	assert.True(t, cfg.Scan.UseGitignore)
	assert.Equal(t, ".codegraph/index.db", cfg.Index.Path)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./src
  languages: [python]
scan:
  exclude_patterns: ["*_test.py"]
  max_file_size: 1048576
index:
  path: /tmp/cg.db
workers: 4
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./src", cfg.Project.Root)
	assert.Equal(t, []string{"python"}, cfg.Project.Languages)
	assert.Equal(t, []string{"*_test.py"}, cfg.Scan.ExcludePatterns)
	assert.Equal(t, int64(1048576), cfg.Scan.MaxFileSize)
	assert.Equal(t, "/tmp/cg.db", cfg.Index.Path)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, codeerr.IsResource(err))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("project: [unclosed"), 0o644))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CODEGRAPH_ROOT", "/srv/code")
	t.Setenv("CODEGRAPH_INDEX", "/srv/idx.db")
	t.Setenv("CODEGRAPH_WORKERS", "8")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/code", cfg.Project.Root)
	assert.Equal(t, "/srv/idx.db", cfg.Index.Path)
	assert.Equal(t, 8, cfg.Workers)
}
