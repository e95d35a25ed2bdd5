package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/memory/internal/config"
)

func TestScaffoldGlobalScope_CreatesUserFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, scaffoldGlobalScope(root))

	for _, name := range []string{"instructions.md", "preferences.md", "entities.md"} {
		path := filepath.Join(root, "user", name)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "---")
	}
}

func TestScaffoldGlobalScope_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, scaffoldGlobalScope(root))
	path := filepath.Join(root, "user", "preferences.md")
	require.NoError(t, os.WriteFile(path, []byte("custom content"), 0o644))

	require.NoError(t, scaffoldGlobalScope(root))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom content", string(raw), "must not overwrite existing memory files")
}

func TestScaffoldProjectScope_CreatesTasksAndPrimer(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, scaffoldProjectScope(root))

	_, err := os.Stat(filepath.Join(root, "TASKS.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "PRIMER.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "journal"))
	require.NoError(t, err)
}

func TestConfigureMCPJSON_WritesServerEntry(t *testing.T) {
	dir := t.TempDir()
	changed, err := configureMCPJSON(dir, false)
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg MCPConfig
	require.NoError(t, json.Unmarshal(raw, &cfg))
	entry, ok := cfg.MCPServers[mcpServerName]
	require.True(t, ok)
	assert.Equal(t, []string{"serve"}, entry.Args)
}

func TestConfigureMCPJSON_SkipsExistingUnlessForced(t *testing.T) {
	dir := t.TempDir()
	_, err := configureMCPJSON(dir, false)
	require.NoError(t, err)

	changed, err := configureMCPJSON(dir, false)
	require.NoError(t, err)
	assert.False(t, changed, "must not rewrite an already-configured entry without --force")

	changed, err = configureMCPJSON(dir, true)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestEnsureUsageGuide_AppendsToExistingClaudeMD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CLAUDE.md")
	require.NoError(t, os.WriteFile(path, []byte("# Project notes\n"), 0o644))

	changed, err := ensureUsageGuide(dir, false)
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Project notes")
	assert.Contains(t, string(raw), "openclaw-memory:guide:start")
}

func TestEnsureUsageGuide_SkipsIfAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte(usageGuideContent), 0o644))

	changed, err := ensureUsageGuide(dir, false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEnsureGitignore_AddsMemoryDirOnce(t *testing.T) {
	dir := t.TempDir()
	changed, err := ensureGitignore(dir)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = ensureGitignore(dir)
	require.NoError(t, err)
	assert.False(t, changed)

	raw, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), ".openclaw_memory/")
}

func TestRunInit_FullFlow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	projectDir := t.TempDir()
	oldDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(projectDir))

	cmd := newInitCmd()
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(home, ".openclaw_memory", "user", "preferences.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(projectDir, ".openclaw_memory", "TASKS.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(projectDir, ".mcp.json"))
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(home, ".openclaw_memory"), projectDir)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Embedding.Provider)
}
