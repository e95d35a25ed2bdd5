package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelinePath_NewestFirstWithinBudget(t *testing.T) {
	root := t.TempDir()
	journalDir := filepath.Join(root, "journal")
	require.NoError(t, os.MkdirAll(journalDir, 0o755))

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(journalDir, name), []byte(content), 0o644))
	}
	write("2026-07-29.md", "oldest day")
	write("2026-07-30.md", "middle day")
	write("2026-07-31.md", "newest day")

	r := &Retriever{scopes: &Scopes{ProjectRoot: root}}
	resp, err := r.timelinePath(1000)
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "journal/2026-07-31.md", resp.Results[0].URI)
	assert.Equal(t, "journal/2026-07-29.md", resp.Results[2].URI)
}

func TestTimelinePath_StopsAtBudget(t *testing.T) {
	root := t.TempDir()
	journalDir := filepath.Join(root, "journal")
	require.NoError(t, os.MkdirAll(journalDir, 0o755))

	big := make([]byte, 4000) // roughly exceeds a 1-token-per-char heuristic's budget quickly
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(filepath.Join(journalDir, "2026-07-30.md"), big, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(journalDir, "2026-07-31.md"), big, 0o644))

	r := &Retriever{scopes: &Scopes{ProjectRoot: root}}
	resp, err := r.timelinePath(100)
	require.NoError(t, err)
	assert.LessOrEqual(t, resp.TotalTokens, 100)
}

func TestTimelinePath_MissingDirectory(t *testing.T) {
	r := &Retriever{scopes: &Scopes{ProjectRoot: t.TempDir()}}
	resp, err := r.timelinePath(500)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 500, resp.BudgetRemaining)
}
