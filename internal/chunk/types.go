package chunk

import (
	"context"
	"time"
)

// Chunk size defaults (based on 2025 RAG research)
const (
	DefaultMaxChunkTokens = 512 // Optimal for 85-90% recall
	DefaultOverlapTokens  = 64  // ~12.5% overlap
	MinChunkTokens        = 100 // Minimum viable chunk
	TokensPerChar         = 4   // Rough approximation: 4 chars = 1 token
)

// ContentType represents the type of content in a chunk, prior to routing.
// The chunker only ever produces markdown chunks; code/text existed for the
// teacher's source-code chunker and have no reader left in this module.
type ContentType string

const (
	ContentTypeMarkdown ContentType = "markdown"
)

// Chunk is the chunker's raw output: a contiguous slice of a Markdown file
// plus the header path it was extracted under. It is a pre-persistence
// representation — the Indexer converts it into a store.Chunk (assigning
// scope, URI, content hash, and routing metadata) before it reaches the
// Store. See index.ToStoreChunk.
type Chunk struct {
	ID          string            // SHA256(file_path + start_line)[:16], superseded by the Indexer's content-addressed ID
	FilePath    string            // Relative to scope root
	Content     string            // Chunk body
	RawContent  string            // Same as Content; kept for symmetry with the chunk's pre-trim form
	ContentType ContentType       // always markdown
	Language    string            // always "markdown"
	StartLine   int               // 1-indexed
	EndLine     int               // Inclusive
	TokenCount  int               // the chunker's own measurement; never recomputed downstream
	Metadata    map[string]string // header_path, header_level, section_title, type, importance, created, updated
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FileInput is input for the Chunker interface
type FileInput struct {
	Path     string // Relative path
	Content  []byte // File content
	Language string // always "markdown" for this module's chunker
}

// Chunker is the interface for splitting files into chunks
type Chunker interface {
	// Chunk splits a file into semantic chunks
	Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error)

	// SupportedExtensions returns file extensions this chunker handles
	SupportedExtensions() []string
}
