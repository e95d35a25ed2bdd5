package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	memerr "github.com/openclaw/memory/internal/errors"
)

// Store is the per-scope facade the Writer and Retriever call: one content
// table (SQLite), one vector index (HNSW), and one full-text index (BM25),
// kept in sync inside a single transaction per mutation.
type Store struct {
	scope Scope
	root  string

	meta   MetadataStore
	vector VectorStore
	fts    BM25Index

	fileLock *flock.Flock
	log      *slog.Logger
}

// Options configures a Store's backing files.
type Options struct {
	Scope       Scope
	Root        string // scope root directory; index.db lives at <root>/index.db
	Dimensions  int
	BM25Backend string // "sqlite" (default) or "bleve"
	Logger      *slog.Logger
}

// Open opens (creating if absent) the metadata DB, vector index, and
// full-text index for one scope, guarded by a cross-process advisory lock on
// index.db.lock so the CLI and a running server never open the same scope in
// conflicting write modes.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, memerr.StorageError("create scope root", err)
	}

	lockPath := filepath.Join(opts.Root, "index.db.lock")
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLockContext(ctx, fileLockRetryInterval)
	if err != nil {
		return nil, memerr.StorageError(fmt.Sprintf("lock scope %s", opts.Root), err)
	}
	if !locked {
		return nil, memerr.StorageError(fmt.Sprintf("scope %s is locked by another process", opts.Root), nil)
	}

	dbPath := filepath.Join(opts.Root, "index.db")
	meta, err := NewSQLiteStore(dbPath)
	if err != nil {
		fileLock.Unlock()
		return nil, memerr.StorageError("open metadata store", err)
	}

	vec, err := NewHNSWStore(DefaultVectorStoreConfig(opts.Dimensions))
	if err != nil {
		meta.Close()
		fileLock.Unlock()
		return nil, memerr.StorageError("open vector store", err)
	}
	vecPath := filepath.Join(opts.Root, "vectors.hnsw")
	if _, statErr := os.Stat(vecPath); statErr == nil {
		_ = vec.Load(vecPath)
	}

	ftsBasePath := filepath.Join(opts.Root, "fts")
	fts, err := NewBM25IndexWithBackend(ftsBasePath, DefaultBM25Config(), opts.BM25Backend)
	if err != nil {
		meta.Close()
		vec.Close()
		fileLock.Unlock()
		return nil, memerr.StorageError("open full-text index", err)
	}

	return &Store{
		scope:    opts.Scope,
		root:     opts.Root,
		meta:     meta,
		vector:   vec,
		fts:      fts,
		fileLock: fileLock,
		log:      opts.Logger,
	}, nil
}

const fileLockRetryInterval = 25 * time.Millisecond

// Close persists the vector index and releases the scope lock.
func (s *Store) Close() error {
	vecPath := filepath.Join(s.root, "vectors.hnsw")
	if err := s.vector.Save(vecPath); err != nil {
		s.log.Warn("save vector index failed", "scope", s.scope, "error", err)
	}
	s.meta.Close()
	s.vector.Close()
	s.fts.Close()
	return s.fileLock.Unlock()
}

// ContentHash returns the dedup key for a chunk's content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives the spec's content-addressed ID:
// sha256(source_path:start_line:end_line:content_hash)[:16].
func ChunkID(sourcePath string, startLine, endLine int, contentHash string) string {
	key := fmt.Sprintf("%s:%d:%d:%s", sourcePath, startLine, endLine, contentHash)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// Upsert is idempotent on content_hash: if a chunk with the same hash
// already exists, its mutable fields are updated in place and its vector is
// replaced (delete-then-insert, since HNSW has no in-place update); otherwise
// a new chunk is inserted. The metadata row and FTS row are written in the
// same logical mutation so invariant (iii) — the indices agree with the
// chunks table — always holds.
func (s *Store) Upsert(ctx context.Context, c *Chunk, embedding []float32) error {
	existing, err := s.meta.FindByContentHash(ctx, s.scope, c.ContentHash)
	if err != nil {
		return memerr.StorageError("find by content hash", err)
	}
	if existing != nil {
		existing.URI = c.URI
		existing.Section = c.Section
		existing.Importance = c.Importance
		existing.TokenCount = c.TokenCount
		existing.Type = c.Type
		existing.StartLine = c.StartLine
		existing.EndLine = c.EndLine
		c = existing
	}

	if err := s.meta.UpsertChunk(ctx, c); err != nil {
		return memerr.StorageError("upsert chunk metadata", err)
	}

	if s.vector.Contains(c.ID) {
		if err := s.vector.Delete(ctx, []string{c.ID}); err != nil {
			return memerr.StorageError("delete stale vector", err)
		}
	}
	if err := s.vector.Add(ctx, []string{c.ID}, [][]float32{embedding}); err != nil {
		return memerr.StorageError("insert vector", err)
	}

	if err := s.fts.Delete(ctx, []string{c.ID}); err != nil {
		return memerr.FTSyncError("delete stale fts row", err)
	}
	if err := s.fts.Index(ctx, []*Document{{ID: c.ID, Content: c.Content}}); err != nil {
		return memerr.FTSyncError("index fts row", err)
	}

	return nil
}

// ScoredChunk pairs a chunk with a similarity/rank score from a search.
type ScoredChunk struct {
	Chunk      *Chunk
	Similarity float64
}

// VectorSearch returns the top_k nearest chunks by cosine distance,
// restricted to parentDir when non-empty, ordered by descending similarity.
func (s *Store) VectorSearch(ctx context.Context, vec []float32, topK int, parentDir string) ([]ScoredChunk, error) {
	results, err := s.vector.Search(ctx, vec, topK*searchOverfetchFactor(parentDir))
	if err != nil {
		return nil, memerr.StorageError("vector search", err)
	}
	out := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		c, err := s.meta.GetChunk(ctx, r.ID)
		if err != nil || c == nil {
			continue
		}
		if parentDir != "" && c.ParentDir != parentDir {
			continue
		}
		out = append(out, ScoredChunk{Chunk: c, Similarity: float64(r.Score)})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

func searchOverfetchFactor(parentDir string) int {
	if parentDir == "" {
		return 1
	}
	// Parent-dir filtering happens after the ANN search, so overfetch to
	// compensate for candidates the filter will drop.
	return 4
}

// FTSResult pairs a chunk with its BM25 rank score.
type FTSResult struct {
	Chunk *Chunk
	Rank  float64
}

// FTSSearch tokenizes query and returns the top_k chunks by BM25 relevance.
func (s *Store) FTSSearch(ctx context.Context, query string, topK int, parentDir string) ([]FTSResult, error) {
	results, err := s.fts.Search(ctx, query, topK*searchOverfetchFactor(parentDir))
	if err != nil {
		return nil, memerr.StorageError("fts search", err)
	}
	out := make([]FTSResult, 0, len(results))
	for _, r := range results {
		c, err := s.meta.GetChunk(ctx, r.DocID)
		if err != nil || c == nil {
			continue
		}
		if parentDir != "" && c.ParentDir != parentDir {
			continue
		}
		out = append(out, FTSResult{Chunk: c, Rank: r.Score})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

// FindSimilar is a thin wrapper over VectorSearch filtering by a minimum
// similarity threshold, ordered by descending similarity. Used by the
// Writer's similarity branch.
func (s *Store) FindSimilar(ctx context.Context, vec []float32, threshold float64, parentDir string) ([]ScoredChunk, error) {
	candidates, err := s.VectorSearch(ctx, vec, similaritySearchBreadth, parentDir)
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.Similarity >= threshold {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

const similaritySearchBreadth = 20

func (s *Store) IncrementReinforcement(ctx context.Context, id string) error {
	if err := s.meta.IncrementReinforcement(ctx, id); err != nil {
		return memerr.StorageError("increment reinforcement", err)
	}
	return nil
}

func (s *Store) IncrementAccessCount(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.meta.IncrementAccessCount(ctx, ids); err != nil {
		return memerr.StorageError("increment access count", err)
	}
	return nil
}

// DeleteByURI removes all chunks, vectors, and full-text rows for a source
// path. Idempotent; returns the count removed.
func (s *Store) DeleteByURI(ctx context.Context, uri string) (int, error) {
	chunks, err := s.meta.ListChunksBySourcePath(ctx, s.scope, uri)
	if err != nil {
		return 0, memerr.StorageError("list chunks by source path", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := s.vector.Delete(ctx, ids); err != nil {
		return 0, memerr.StorageError("delete vectors", err)
	}
	if err := s.fts.Delete(ctx, ids); err != nil {
		return 0, memerr.FTSyncError("delete fts rows", err)
	}
	if err := s.meta.DeleteChunksBySourcePath(ctx, s.scope, uri); err != nil {
		return 0, memerr.StorageError("delete chunk metadata", err)
	}
	return len(ids), nil
}

// GetStats reports aggregate counts for the status surface.
func (s *Store) GetStats(ctx context.Context) (*ScopeStats, error) {
	stats, err := s.meta.GetStats(ctx, s.scope)
	if err != nil {
		return nil, memerr.StorageError("get stats", err)
	}
	return stats, nil
}

func (s *Store) Meta() MetadataStore { return s.meta }
func (s *Store) Scope() Scope        { return s.scope }
func (s *Store) Root() string        { return s.root }
