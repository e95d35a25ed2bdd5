// Package index implements the Indexer: it makes a scope's Store converge
// to the on-disk truth of that scope's Markdown corpus, one file or one
// full tree at a time.
package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/memory/internal/chunk"
	memerr "github.com/openclaw/memory/internal/errors"
	"github.com/openclaw/memory/internal/embed"
	"github.com/openclaw/memory/internal/store"
)

// excludedFiles are never indexed regardless of scope; they are derived,
// regenerated output rather than source memory.
var excludedFiles = map[string]bool{
	"PRIMER.md": true,
	"TASKS.md":  true,
}

// Indexer reconciles one scope's Store with its Markdown files.
type Indexer struct {
	store    *store.Store
	chunker  chunk.Chunker
	embedder embed.Embedder
	excludes []string // additional gitignore-style excluded path globs
	log      *slog.Logger
}

// New builds an Indexer over one scope's Store.
func New(s *store.Store, embedder embed.Embedder, excludes []string, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    s,
		chunker:  chunk.NewMarkdownChunker(),
		embedder: embedder,
		excludes: excludes,
		log:      logger,
	}
}

// IndexFile reconciles the Store's view of one Markdown file with its
// current on-disk contents. Per §4.4: read the file; if missing, delete all
// chunks for that path. Otherwise chunk it, embed the batch, compute each
// chunk's content hash, delete any chunk at this path whose hash is no
// longer produced, and upsert the rest — preserving reinforcement/access
// counters for chunks whose hash is unchanged (Upsert's dedup-on-hash
// already does this).
func (ix *Indexer) IndexFile(ctx context.Context, scopeRoot, relPath string) error {
	if isExcluded(relPath, ix.excludes) {
		return nil
	}

	absPath := filepath.Join(scopeRoot, relPath)
	raw, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			_, derr := ix.store.DeleteByURI(ctx, relPath)
			return derr
		}
		return memerr.StorageError("read file for indexing", err)
	}

	rawChunks, err := ix.chunker.Chunk(ctx, &chunk.FileInput{Path: relPath, Content: raw, Language: "markdown"})
	if err != nil {
		return memerr.StorageError("chunk file", err)
	}

	texts := make([]string, len(rawChunks))
	for i, c := range rawChunks {
		texts[i] = c.Content
	}
	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return memerr.EmbeddingUnavailable("embed batch for indexing", err)
		}
	}

	newChunks := make([]*store.Chunk, len(rawChunks))
	newHashes := make(map[string]bool, len(rawChunks))
	for i, c := range rawChunks {
		sc := toStoreChunk(c, relPath)
		sc.Scope = ix.store.Scope()
		newChunks[i] = sc
		newHashes[sc.ContentHash] = true
	}

	existing, err := ix.store.Meta().ListChunksBySourcePath(ctx, ix.store.Scope(), relPath)
	if err != nil {
		return memerr.StorageError("list existing chunks", err)
	}
	for _, old := range existing {
		if !newHashes[old.ContentHash] {
			if err := ix.store.Meta().DeleteChunk(ctx, old.ID); err != nil {
				return memerr.StorageError("delete stale chunk", err)
			}
		}
	}

	for i, sc := range newChunks {
		if err := ix.store.Upsert(ctx, sc, vectors[i]); err != nil {
			return err
		}
	}

	ix.log.Debug("indexed file", "scope", ix.store.Scope(), "path", relPath, "chunks", len(newChunks))
	return nil
}

// IndexAll walks every tracked Markdown file under scopeRoot, excluding
// PRIMER.md, TASKS.md, and the configured exclude patterns, and reconciles
// each with IndexFile.
func (ix *Indexer) IndexAll(ctx context.Context, scopeRoot string) error {
	return filepath.WalkDir(scopeRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != scopeRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		relPath, err := filepath.Rel(scopeRoot, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return ix.IndexFile(ctx, scopeRoot, relPath)
	})
}

func isExcluded(relPath string, extra []string) bool {
	base := filepath.Base(relPath)
	if excludedFiles[base] {
		return true
	}
	for _, pattern := range extra {
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// toStoreChunk converts the chunker's pre-persistence Chunk into the
// Store's content-addressed Chunk, the single conversion boundary between
// the two representations.
func toStoreChunk(c *chunk.Chunk, relPath string) *store.Chunk {
	now := time.Now()
	contentHash := store.ContentHash(c.Content)
	id := store.ChunkID(relPath, c.StartLine, c.EndLine, contentHash)
	parentDir := strings.SplitN(relPath, "/", 2)[0]
	if !strings.Contains(relPath, "/") {
		parentDir = ""
	}

	typ := store.ContentType(c.Metadata["type"])
	if typ == "" {
		typ = store.ContentTypeGeneral
	}
	if parentDir == "journal" {
		typ = store.ContentTypeJournal
	}

	importance := 0.6
	if raw := c.Metadata["importance"]; raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			if v > 1 {
				v = v / 5
			}
			importance = v
		}
	}

	return &store.Chunk{
		ID:          id,
		URI:         relPath + "#" + c.Metadata["header_path"],
		SourcePath:  relPath,
		ParentDir:   parentDir,
		Section:     c.Metadata["header_path"],
		Content:     c.Content,
		ContentHash: contentHash,
		Type:        typ,
		Importance:  importance,
		TokenCount:  c.TokenCount,
		StartLine:   c.StartLine,
		EndLine:     c.EndLine,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
