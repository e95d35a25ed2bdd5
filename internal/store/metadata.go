package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore implements MetadataStore over a single SQLite database. It
// follows the same connection discipline as SQLiteBM25Index: WAL mode for
// concurrent readers, a single writer connection to avoid SQLITE_BUSY, and
// an integrity check that clears a corrupted file rather than failing open.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ MetadataStore = (*SQLiteStore)(nil)

// validateMetadataIntegrity checks a SQLite database is openable and
// consistent before reusing it, mirroring the corruption check
// SQLiteBM25Index applies to its own file.
func validateMetadataIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteStore opens (or creates) the metadata database at path. An empty
// path opens an in-memory database, used by tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateMetadataIntegrity(path); validErr != nil {
			slog.Warn("metadata_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("metadata store corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("metadata_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id               TEXT PRIMARY KEY,
		scope            TEXT NOT NULL,
		uri              TEXT NOT NULL,
		source_path      TEXT NOT NULL,
		parent_dir       TEXT NOT NULL,
		section          TEXT NOT NULL,
		content          TEXT NOT NULL,
		content_hash     TEXT NOT NULL,
		type             TEXT NOT NULL,
		importance       REAL NOT NULL DEFAULT 0,
		reinforcement    INTEGER NOT NULL DEFAULT 0,
		access_count     INTEGER NOT NULL DEFAULT 0,
		token_count      INTEGER NOT NULL DEFAULT 0,
		start_line       INTEGER NOT NULL DEFAULT 0,
		end_line         INTEGER NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL,
		last_accessed_at INTEGER NOT NULL DEFAULT 0,
		UNIQUE(scope, uri)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source_path ON chunks(scope, source_path);
	CREATE INDEX IF NOT EXISTS idx_chunks_parent_dir ON chunks(scope, parent_dir);
	CREATE INDEX IF NOT EXISTS idx_chunks_content_hash ON chunks(scope, content_hash);

	CREATE TABLE IF NOT EXISTS state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertChunk(ctx context.Context, c *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	now := c.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (
			id, scope, uri, source_path, parent_dir, section, content, content_hash,
			type, importance, reinforcement, access_count, token_count,
			start_line, end_line, created_at, updated_at, last_accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			source_path = excluded.source_path,
			parent_dir = excluded.parent_dir,
			section = excluded.section,
			content = excluded.content,
			content_hash = excluded.content_hash,
			type = excluded.type,
			importance = excluded.importance,
			token_count = excluded.token_count,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			updated_at = excluded.updated_at
	`,
		c.ID, string(c.Scope), c.URI, c.SourcePath, c.ParentDir, c.Section, c.Content, c.ContentHash,
		string(c.Type), c.Importance, c.Reinforcement, c.AccessCount, c.TokenCount,
		c.StartLine, c.EndLine, createdAt.Unix(), now.Unix(), c.LastAccessedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
	}
	return nil
}

func scanChunk(row interface{ Scan(...any) error }) (*Chunk, error) {
	var c Chunk
	var scope, ctype string
	var created, updated, accessed int64
	err := row.Scan(
		&c.ID, &scope, &c.URI, &c.SourcePath, &c.ParentDir, &c.Section, &c.Content, &c.ContentHash,
		&ctype, &c.Importance, &c.Reinforcement, &c.AccessCount, &c.TokenCount,
		&c.StartLine, &c.EndLine, &created, &updated, &accessed,
	)
	if err != nil {
		return nil, err
	}
	c.Scope = Scope(scope)
	c.Type = ContentType(ctype)
	c.CreatedAt = time.Unix(created, 0).UTC()
	c.UpdatedAt = time.Unix(updated, 0).UTC()
	if accessed > 0 {
		c.LastAccessedAt = time.Unix(accessed, 0).UTC()
	}
	return &c, nil
}

const chunkColumns = `id, scope, uri, source_path, parent_dir, section, content, content_hash,
	type, importance, reinforcement, access_count, token_count,
	start_line, end_line, created_at, updated_at, last_accessed_at`

func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) GetChunks(ctx context.Context, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id IN ("+string(placeholders)+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetChunkByURI(ctx context.Context, scope Scope, uri string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE scope = ? AND uri = ?", string(scope), uri)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) FindByContentHash(ctx context.Context, scope Scope, hash string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE scope = ? AND content_hash = ? LIMIT 1", string(scope), hash)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) ListChunksBySourcePath(ctx context.Context, scope Scope, sourcePath string) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE scope = ? AND source_path = ?", string(scope), sourcePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListChunksByParentDir(ctx context.Context, scope Scope, parentDir string) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE scope = ? AND parent_dir = ?", string(scope), parentDir)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteChunk(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) DeleteChunksBySourcePath(ctx context.Context, scope Scope, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE scope = ? AND source_path = ?", string(scope), sourcePath)
	return err
}

func (s *SQLiteStore) IncrementReinforcement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"UPDATE chunks SET reinforcement = reinforcement + 1, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id)
	return err
}

func (s *SQLiteStore) IncrementAccessCount(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE chunks SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, now, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func (s *SQLiteStore) GetStats(ctx context.Context, scope Scope) (*ScopeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &ScopeStats{}
	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT source_path), MIN(created_at), MAX(updated_at)
		FROM chunks WHERE scope = ?`, string(scope),
	).Scan(&stats.ChunkCount, &stats.SourceCount, &oldest, &newest)
	if err != nil {
		return nil, err
	}
	if oldest.Valid {
		stats.OldestChunk = time.Unix(oldest.Int64, 0).UTC()
	}
	if newest.Valid {
		stats.NewestChunk = time.Unix(newest.Int64, 0).UTC()
	}
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
