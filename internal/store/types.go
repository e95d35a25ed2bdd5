// Package store provides vector storage (HNSW), BM25 full-text index, and
// metadata persistence (SQLite) — the persistence layer for memory chunks.
package store

import (
	"context"
	"fmt"
	"time"
)

// ContentType distinguishes how a chunk's source Markdown file was routed.
type ContentType string

const (
	ContentTypeDecision   ContentType = "decision"
	ContentTypePreference ContentType = "preference"
	ContentTypePattern    ContentType = "pattern"
	ContentTypeJournal    ContentType = "journal"
	ContentTypeTask       ContentType = "task"
	ContentTypeGeneral    ContentType = "general"
)

// Scope distinguishes the two storage roots a chunk can live under.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// State keys for the metadata store's key-value state table.
const (
	StateKeyIndexDimension = "index_embedding_dimension"
	StateKeyIndexModel     = "index_embedding_model"
	StateKeyBM25Backend    = "bm25_backend"
	StateKeySchemaVersion  = "schema_version"
)

// Chunk is the retrievable unit of memory: one section of a Markdown file,
// keyed by a content-addressed ID.
type Chunk struct {
	ID          string // sha256(source_path:start_line:end_line:content_hash)[:16]
	Scope       Scope
	URI         string // source_path#section, stable across re-chunks of the same section
	SourcePath  string // path to the backing Markdown file, relative to scope root
	ParentDir   string // directory the source file lives in, for fast-path lookups
	Section     string // heading text the chunk was extracted under
	Content     string
	ContentHash string // sha256(Content), used for change detection and reinforcement dedup
	Type        ContentType
	Importance  float64 // 0-1, set by the quality gate at write time

	Reinforcement int // number of times this chunk was reinforced by a near-duplicate write
	AccessCount   int // number of times this chunk was returned by a retrieval

	TokenCount int
	StartLine  int
	EndLine    int

	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt time.Time
}

// MetadataStore persists chunk metadata and state in SQLite. Vector and
// full-text indices are kept separately (VectorStore, BM25Index); the
// metadata store is the source of truth for everything else a chunk carries,
// including the counters that drive salience scoring.
type MetadataStore interface {
	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, id string) (*Chunk, error)
	GetChunks(ctx context.Context, ids []string) ([]*Chunk, error)
	GetChunkByURI(ctx context.Context, scope Scope, uri string) (*Chunk, error)
	FindByContentHash(ctx context.Context, scope Scope, hash string) (*Chunk, error)
	ListChunksBySourcePath(ctx context.Context, scope Scope, sourcePath string) ([]*Chunk, error)
	ListChunksByParentDir(ctx context.Context, scope Scope, parentDir string) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, id string) error
	DeleteChunksBySourcePath(ctx context.Context, scope Scope, sourcePath string) error

	// Counter operations, used by the similarity branch and the retriever's
	// salience pass respectively.
	IncrementReinforcement(ctx context.Context, id string) error
	IncrementAccessCount(ctx context.Context, ids []string) error

	// State operations (key-value store for runtime state, e.g. the
	// embedding dimension an index was built with).
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	// Stats reports aggregate counts for the status surface.
	GetStats(ctx context.Context, scope Scope) (*ScopeStats, error)

	Close() error
}

// ScopeStats summarizes one scope's store for `openclaw-memory status`.
type ScopeStats struct {
	ChunkCount  int
	SourceCount int
	OldestChunk time.Time
	NewestChunk time.Time
}

// IndexInfo reports the embedding configuration and size of a scope's index,
// and whether the running embedder is still compatible with it.
type IndexInfo struct {
	Location  string
	ScopeRoot string

	IndexModel      string
	IndexBackend    string
	IndexDimensions int

	ChunkCount      int
	IndexSizeBytes  int64
	BM25SizeBytes   int64
	VectorSizeBytes int64

	CreatedAt time.Time
	UpdatedAt time.Time

	CurrentModel      string
	CurrentDimensions int
	Compatible        bool
}

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// Document represents a document to be indexed in the BM25 index.
type Document struct {
	ID      string // Chunk ID
	Content string
}

// BM25Result represents a single BM25 search result.
type BM25Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// IndexStats provides statistics about the BM25 index.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// BM25Index provides keyword search using BM25 scoring.
type BM25Index interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)
	Delete(ctx context.Context, docIDs []string) error
	AllIDs() ([]string, error)
	Stats() *IndexStats
	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config configures the BM25 index.
type BM25Config struct {
	K1             float64
	B              float64
	StopWords      []string
	MinTokenLength int
}

// DefaultBM25Config returns default BM25 configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:             1.2,
		B:              0.75,
		StopWords:      DefaultStopWords,
		MinTokenLength: 2,
	}
}

// DefaultStopWords contains common prose function words to filter out of the
// full-text index, mirroring the set the embedder's tokenizer already skips.
var DefaultStopWords = []string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"and", "or", "but", "if", "then", "of", "to", "in", "on", "for",
	"with", "as", "at", "by", "from", "this", "that", "it", "its",
}

// VectorResult represents a single vector search result.
type VectorResult struct {
	ID       string
	Distance float32 // lower is more similar (0-2 for cosine)
	Score    float32 // similarity, 1 - distance, normalized 0-1
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible defaults for vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              32,
		EfConstruction: 128,
		EfSearch:       64,
	}
}

// VectorStore provides semantic search using HNSW.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates the query/insert vector's dimension doesn't
// match the dimension the index was built with.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'openclaw-memory reindex')", e.Expected, e.Got)
}
