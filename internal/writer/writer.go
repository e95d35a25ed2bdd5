package writer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/openclaw/memory/internal/embed"
	memerr "github.com/openclaw/memory/internal/errors"
	"github.com/openclaw/memory/internal/index"
	"github.com/openclaw/memory/internal/store"
)

// Scopes resolves a Route's scope to the Store and on-disk root that back
// it. Both scopes are always open; the Writer never opens a Store lazily.
type Scopes struct {
	Global        *store.Store
	GlobalRoot    string
	GlobalIndexer *index.Indexer

	Project        *store.Store
	ProjectRoot    string
	ProjectIndexer *index.Indexer
}

func (s *Scopes) resolve(scope store.Scope) (*store.Store, string, *index.Indexer) {
	if scope == store.ScopeGlobal {
		return s.Global, s.GlobalRoot, s.GlobalIndexer
	}
	return s.Project, s.ProjectRoot, s.ProjectIndexer
}

// Writer implements §4.3: quality gate, privacy filter, router, embed,
// similarity branch, and the synchronous re-index trigger.
type Writer struct {
	scopes   *Scopes
	embedder embed.Embedder
	privacy  *PrivacyFilter
	log      *slog.Logger

	// now is overridable in tests; production callers leave it nil and get
	// time.Now.
	now func() time.Time
}

// New builds a Writer. privacyPatterns, if non-empty, replaces the default
// privacy pattern list wholesale.
func New(scopes *Scopes, embedder embed.Embedder, privacyPatterns []string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	filter, err := NewPrivacyFilter(privacyPatterns)
	if err != nil {
		return nil, memerr.ConfigError("compile privacy patterns", err)
	}
	return &Writer{scopes: scopes, embedder: embedder, privacy: filter, log: logger}, nil
}

func (w *Writer) nowFn() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// Log implements the entry contract `log(content, type_hint?) -> WriteOutcome`.
func (w *Writer) Log(ctx context.Context, content, typeHint string) (*Outcome, error) {
	if reason := qualityGate(content); reason != "" {
		return &Outcome{Kind: Rejected, Reason: reason}, nil
	}
	if reason := w.privacy.Check(content); reason != "" {
		return &Outcome{Kind: Rejected, Reason: reason}, nil
	}

	now := w.nowFn()
	r := route(content, typeHint, now)
	s, root, ix := w.scopes.resolve(r.Scope)

	vec, err := w.embedder.Embed(ctx, content)
	if err != nil {
		return nil, memerr.EmbeddingUnavailable("embed note", err)
	}

	parentDir := topLevelDir(r.TargetFile)
	candidates, err := s.FindSimilar(ctx, vec, ConflictThreshold, parentDir)
	if err != nil {
		return nil, err
	}

	targetPath := filepath.Join(root, r.TargetFile)

	switch {
	case len(candidates) > 0 && candidates[0].Similarity >= ReinforceThreshold:
		best := candidates[0]
		if err := s.IncrementReinforcement(ctx, best.Chunk.ID); err != nil {
			return nil, err
		}
		if err := reinforceFile(targetPath, best.Chunk.Reinforcement+1, now); err != nil {
			return nil, memerr.StorageError("rewrite reinforced file", err)
		}
		if err := ix.IndexFile(ctx, root, best.Chunk.SourcePath); err != nil {
			return nil, err
		}
		return &Outcome{Kind: Reinforced, Path: best.Chunk.SourcePath, Score: best.Similarity}, nil

	case len(candidates) > 0 && candidates[0].Similarity >= ConflictThreshold:
		best := tieBreakMostRecentlyUpdated(candidates)
		if err := conflictReplace(filepath.Join(root, best.Chunk.SourcePath), best.Chunk.Content, content, now); err != nil {
			return nil, memerr.StorageError("rewrite conflicting file", err)
		}
		if err := ix.IndexFile(ctx, root, best.Chunk.SourcePath); err != nil {
			return nil, err
		}
		return &Outcome{Kind: ConflictUpdated, Path: best.Chunk.SourcePath, Score: best.Similarity}, nil

	default:
		if err := ensureTargetFile(targetPath, r, now); err != nil {
			return nil, memerr.StorageError("create target file", err)
		}
		if err := appendBullet(targetPath, r.Section, content, now); err != nil {
			return nil, memerr.StorageError("append bullet", err)
		}
		if err := ix.IndexFile(ctx, root, r.TargetFile); err != nil {
			return nil, err
		}
		return &Outcome{Kind: Appended, Path: r.TargetFile, Type: r.Type}, nil
	}
}

// tieBreakMostRecentlyUpdated resolves the open question on ties within the
// 0.85-0.92 band by picking the most recently updated candidate.
func tieBreakMostRecentlyUpdated(candidates []store.ScoredChunk) store.ScoredChunk {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Similarity < ConflictThreshold || c.Similarity >= ReinforceThreshold {
			continue
		}
		if c.Chunk.UpdatedAt.After(best.Chunk.UpdatedAt) {
			best = c
		}
	}
	return best
}

func topLevelDir(relPath string) string {
	dir := filepath.Dir(filepath.ToSlash(relPath))
	if dir == "." {
		return ""
	}
	for i, r := range dir {
		if r == '/' {
			return dir[:i]
		}
	}
	return dir
}
