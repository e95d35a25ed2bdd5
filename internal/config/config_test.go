package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFilesPresent(t *testing.T) {
	cfg, err := Load(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.True(t, cfg.Privacy.Enabled)
	assert.Equal(t, 1500, cfg.Search.DefaultMaxTokens)
	assert.Equal(t, 30.0, cfg.Search.RecencyHalfLifeDays)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	global := t.TempDir()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, GlobalFileName), []byte(`
[embedding]
provider = "ollama"
dimension = 512
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectFileName), []byte(`
[embedding]
dimension = 1024

[project]
name = "openclaw-memory"
`), 0o644))

	cfg, err := Load(global, project)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embedding.Provider, "project file must not clobber fields it doesn't set")
	assert.Equal(t, 1024, cfg.Embedding.Dimension, "project file overrides global on the fields it does set")
	assert.Equal(t, "openclaw-memory", cfg.Project.Name)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	global := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, GlobalFileName), []byte(`
[embedding]
provider = "ollama"
`), 0o644))
	t.Setenv("OPENCLAW_EMBEDDING_PROVIDER", "openai")

	cfg, err := Load(global, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	global := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, GlobalFileName), []byte(`
[embedding]
provider = "magic"
`), 0o644))

	_, err := Load(global, t.TempDir())
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveDimension(t *testing.T) {
	global := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, GlobalFileName), []byte(`
[embedding]
dimension = 0
`), 0o644))

	_, err := Load(global, t.TempDir())
	assert.Error(t, err)
}

func TestWriteDefault_CreatesFileOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, GlobalFileName)
	require.NoError(t, WriteDefault(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[embedding]")

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o644))
	require.NoError(t, WriteDefault(path), "must not overwrite an existing config")
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(raw))
}

func TestFindProjectRoot_WalksUpToExistingMemoryDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".openclaw_memory"), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested))
}

func TestFindProjectRoot_FallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, FindProjectRoot(dir))
}
