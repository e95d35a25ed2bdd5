package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleChunk(id string) *Chunk {
	now := time.Now()
	return &Chunk{
		ID:          id,
		Scope:       ScopeProject,
		URI:         "notes/decisions.md#" + id,
		SourcePath:  "notes/decisions.md",
		ParentDir:   "notes",
		Section:     "Decisions",
		Content:     "decided to use PostgreSQL over MySQL",
		ContentHash: "hash-" + id,
		Type:        ContentTypeDecision,
		Importance:  0.8,
		TokenCount:  12,
		StartLine:   1,
		EndLine:     3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUpsertAndGetChunk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))

	got, err := s.GetChunk(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Content, got.Content)
	assert.Equal(t, c.Type, got.Type)
	assert.Equal(t, ScopeProject, got.Scope)
}

func TestUpsertChunkUpdatesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))

	c.Content = "decided to use PostgreSQL after all, MySQL had replication issues"
	c.Importance = 0.9
	require.NoError(t, s.UpsertChunk(ctx, c))

	got, err := s.GetChunk(ctx, "abc123")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "replication issues")
	assert.InDelta(t, 0.9, got.Importance, 0.001)
}

func TestGetChunkNotFoundReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetChunk(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetChunkByURI(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))

	got, err := s.GetChunkByURI(ctx, ScopeProject, c.URI)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)

	missing, err := s.GetChunkByURI(ctx, ScopeGlobal, c.URI)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindByContentHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))

	got, err := s.FindByContentHash(ctx, ScopeProject, c.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
}

func TestGetChunksBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.UpsertChunk(ctx, sampleChunk(id)))
	}

	got, err := s.GetChunks(ctx, []string{"a", "c", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListChunksBySourcePathAndParentDir(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c1 := sampleChunk("a")
	c2 := sampleChunk("b")
	c2.URI = "notes/decisions.md#b"
	require.NoError(t, s.UpsertChunk(ctx, c1))
	require.NoError(t, s.UpsertChunk(ctx, c2))

	bySource, err := s.ListChunksBySourcePath(ctx, ScopeProject, "notes/decisions.md")
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byDir, err := s.ListChunksByParentDir(ctx, ScopeProject, "notes")
	require.NoError(t, err)
	assert.Len(t, byDir, 2)
}

func TestDeleteChunk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))
	require.NoError(t, s.DeleteChunk(ctx, "abc123"))

	got, err := s.GetChunk(ctx, "abc123")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteChunksBySourcePath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c1 := sampleChunk("a")
	c2 := sampleChunk("b")
	c2.URI = "notes/decisions.md#b"
	require.NoError(t, s.UpsertChunk(ctx, c1))
	require.NoError(t, s.UpsertChunk(ctx, c2))

	require.NoError(t, s.DeleteChunksBySourcePath(ctx, ScopeProject, "notes/decisions.md"))

	remaining, err := s.ListChunksBySourcePath(ctx, ScopeProject, "notes/decisions.md")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestIncrementReinforcement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := sampleChunk("abc123")
	require.NoError(t, s.UpsertChunk(ctx, c))

	require.NoError(t, s.IncrementReinforcement(ctx, "abc123"))
	require.NoError(t, s.IncrementReinforcement(ctx, "abc123"))

	got, err := s.GetChunk(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Reinforcement)
}

func TestIncrementAccessCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c1 := sampleChunk("a")
	c2 := sampleChunk("b")
	c2.URI = "notes/other.md#b"
	require.NoError(t, s.UpsertChunk(ctx, c1))
	require.NoError(t, s.UpsertChunk(ctx, c2))

	require.NoError(t, s.IncrementAccessCount(ctx, []string{"a", "b", "a"}))

	gotA, err := s.GetChunk(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, gotA.AccessCount)
	assert.False(t, gotA.LastAccessedAt.IsZero())
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "text-embedding-3-small"))
	got, err := s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", got)

	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "nomic-embed-text"))
	got, err = s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", got)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c1 := sampleChunk("a")
	c2 := sampleChunk("b")
	c2.URI = "notes/other.md#b"
	c2.SourcePath = "notes/other.md"
	c2.ParentDir = "notes"
	require.NoError(t, s.UpsertChunk(ctx, c1))
	require.NoError(t, s.UpsertChunk(ctx, c2))

	stats, err := s.GetStats(ctx, ScopeProject)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ChunkCount)
	assert.Equal(t, 2, stats.SourceCount)

	globalStats, err := s.GetStats(ctx, ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, 0, globalStats.ChunkCount)
}

func TestScopeIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	global := sampleChunk("global-a")
	global.Scope = ScopeGlobal
	global.URI = "same/path.md#a"
	project := sampleChunk("project-a")
	project.Scope = ScopeProject
	project.URI = "same/path.md#a"

	require.NoError(t, s.UpsertChunk(ctx, global))
	require.NoError(t, s.UpsertChunk(ctx, project))

	g, err := s.GetChunkByURI(ctx, ScopeGlobal, "same/path.md#a")
	require.NoError(t, err)
	p, err := s.GetChunkByURI(ctx, ScopeProject, "same/path.md#a")
	require.NoError(t, err)
	require.NotNil(t, g)
	require.NotNil(t, p)
}

func TestCloseRejectsFurtherWrites(t *testing.T) {
	s, err := NewSQLiteStore("")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.UpsertChunk(context.Background(), sampleChunk("a"))
	assert.Error(t, err)
}
