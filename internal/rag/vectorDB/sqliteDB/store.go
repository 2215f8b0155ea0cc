// Package sqliteDB is the durable chunk store. Vectors live next to their
// chunks in SQLite and are searched exactly from an in-process snapshot.
package sqliteDB

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/sqliteDB/migrations"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Store struct {
	db        *sqlx.DB
	path      string
	dimension int
	logger    *logger_i.Logger

	snapshot  atomic.Pointer[snapshot]
	rebuildMu sync.Mutex
}

// snapshot is an immutable copy of every chunk at one index version. A
// search is answered from a single snapshot so a concurrent re-index is
// either fully visible or not at all.
type snapshot struct {
	version int64
	entries []vectorDB.Entry
	chunks  map[int64]ragModel.ScoredChunk
}

type chunkRow struct {
	ragModel.DocumentChunk
	Embedding   []byte         `db:"embedding"`
	CreatedAtMs int64          `db:"created_at"`
	Title       sql.NullString `db:"title"`
	Country     sql.NullString `db:"country"`
}

type documentRow struct {
	DocumentId  int64  `db:"document_id"`
	Title       string `db:"title"`
	Country     string `db:"country"`
	ContentHash string `db:"content_hash"`
	ChunkCount  int    `db:"chunk_count"`
	IndexedAtMs int64  `db:"indexed_at"`
}

// Open creates the database file if needed and applies pending migrations.
// dimension is the embedding size every write and search must match.
func Open(ctx context.Context, path string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("sqlite store: invalid dimension %d", dimension)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_txlock=immediate", path, config.SQLiteBusyTimeout)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ragModel.ErrStoreUnavailable, path, err)
	}

	s := &Store{db: db, path: path, dimension: dimension, logger: logger_i.NewLogger("chunk_store")}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", ragModel.ErrStoreUnavailable, err)
	}

	var stored int
	if err := s.db.GetContext(ctx, &stored, `SELECT dimension FROM index_state WHERE id = 1`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: reading index state: %w", ragModel.ErrStoreUnavailable, err)
	}
	if stored != 0 && stored != dimension {
		s.logger.Warn("Index dimension differs from configured embedding dimension, reset and re-index required",
			"indexDimension", stored, "configuredDimension", dimension)
	}
	s.logger.Info("Chunk store opened", "path", path, "dimension", dimension)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// UpsertChunks replaces every chunk of doc in one transaction. On any error
// the previous chunks stay as they were.
func (s *Store) UpsertChunks(ctx context.Context, doc ragModel.IndexedDocument, chunks []ragModel.DocumentChunk) error {
	if err := s.validateChunks(doc.DocumentId, chunks); err != nil {
		return err
	}
	log := s.logger.WithContext(ctx).With("documentId", doc.DocumentId)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored int
	if err := tx.GetContext(ctx, &stored, `SELECT dimension FROM index_state WHERE id = 1`); err != nil {
		return storeErr("read index state", err)
	}
	if stored != 0 && stored != s.dimension {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, embedder produces %d", ragModel.ErrDimensionMismatch, stored, s.dimension)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, doc.DocumentId); err != nil {
		return storeErr("delete old chunks", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, offset_start, offset_end, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return storeErr("prepare chunk insert", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.DocumentId, c.ChunkIndex, c.OffsetStart, c.OffsetEnd, c.Text,
			float32SliceToBytes(c.Vector), now); err != nil {
			return storeErr(fmt.Sprintf("insert chunk %d", c.ChunkIndex), err)
		}
	}

	indexedAt := doc.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO indexed_documents (document_id, title, country, content_hash, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id) DO UPDATE SET
			title = excluded.title,
			country = excluded.country,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at`,
		doc.DocumentId, doc.Title, doc.Country, doc.ContentHash, len(chunks), indexedAt.UnixMilli()); err != nil {
		return storeErr("upsert indexed document", err)
	}

	written := 0
	if len(chunks) > 0 {
		written = s.dimension
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE index_state
		SET version = version + 1,
			dimension = CASE WHEN dimension = 0 THEN ? ELSE dimension END
		WHERE id = 1`, written); err != nil {
		return storeErr("bump index version", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit upsert", err)
	}
	log.Info("Document chunks replaced", "chunks", len(chunks))
	return nil
}

func (s *Store) validateChunks(documentId int64, chunks []ragModel.DocumentChunk) error {
	for i, c := range chunks {
		if c.DocumentId != documentId {
			return &ragModel.ValidationError{Field: "chunks", Reason: fmt.Sprintf("chunk %d belongs to document %d", i, c.DocumentId)}
		}
		if c.ChunkIndex != i {
			return &ragModel.ValidationError{Field: "chunks", Reason: fmt.Sprintf("chunk indices must be contiguous from 0, got %d at position %d", c.ChunkIndex, i)}
		}
		if len(c.Vector) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index uses %d", ragModel.ErrDimensionMismatch, i, len(c.Vector), s.dimension)
		}
	}
	return nil
}

// Search ranks every stored chunk by cosine similarity to queryVector. The
// returned vectors are shared with the snapshot and must not be modified.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]ragModel.ScoredChunk, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index uses %d", ragModel.ErrDimensionMismatch, len(queryVector), s.dimension)
	}
	if topK <= 0 {
		return []ragModel.ScoredChunk{}, nil
	}

	snap, err := s.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	hits := vectorDB.TopK(snap.entries, queryVector, topK)
	results := make([]ragModel.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		hit := snap.chunks[h.ChunkId]
		hit.Score = h.Score
		results = append(results, hit)
	}
	return results, nil
}

// currentSnapshot returns the chunks for the current index version,
// rebuilding them once per version change.
func (s *Store) currentSnapshot(ctx context.Context) (*snapshot, error) {
	version, err := s.IndexVersion(ctx)
	if err != nil {
		return nil, err
	}
	if snap := s.snapshot.Load(); snap != nil && snap.version == version {
		return snap, nil
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	if snap := s.snapshot.Load(); snap != nil && snap.version >= version {
		return snap, nil
	}
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.snapshot.Store(snap)
	s.logger.WithContext(ctx).Debug("Vector snapshot rebuilt", "version", snap.version, "vectors", len(snap.entries))
	return snap, nil
}

func (s *Store) buildSnapshot(ctx context.Context) (*snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin snapshot", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := &snapshot{}
	if err := tx.GetContext(ctx, &snap.version, `SELECT version FROM index_state WHERE id = 1`); err != nil {
		return nil, storeErr("read index version", err)
	}
	var rows []chunkRow
	if err := tx.SelectContext(ctx, &rows, `
		SELECT c.id, c.document_id, c.chunk_index, c.offset_start, c.offset_end, c.content, c.embedding, c.created_at,
			d.title, d.country
		FROM document_chunks c
		LEFT JOIN indexed_documents d ON d.document_id = c.document_id
		ORDER BY c.id`); err != nil {
		return nil, storeErr("read chunks", err)
	}
	snap.entries = make([]vectorDB.Entry, 0, len(rows))
	snap.chunks = make(map[int64]ragModel.ScoredChunk, len(rows))
	for _, r := range rows {
		vector := bytesToFloat32Slice(r.Embedding)
		if len(vector) != s.dimension {
			continue
		}
		chunk := r.DocumentChunk
		chunk.Vector = vector
		chunk.CreatedAt = time.UnixMilli(r.CreatedAtMs)
		snap.entries = append(snap.entries, vectorDB.NewEntry(r.ChunkId, vector))
		snap.chunks[r.ChunkId] = ragModel.ScoredChunk{
			Chunk:         chunk,
			DocumentTitle: r.Title.String,
			Country:       r.Country.String,
		}
	}
	return snap, nil
}

// DeleteDocument removes a document's chunks and bookkeeping row.
func (s *Store) DeleteDocument(ctx context.Context, documentId int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin delete", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, documentId); err != nil {
		return storeErr("delete chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexed_documents WHERE document_id = ?`, documentId); err != nil {
		return storeErr("delete indexed document", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE index_state SET version = version + 1 WHERE id = 1`); err != nil {
		return storeErr("bump index version", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit delete", err)
	}
	s.logger.WithContext(ctx).Info("Document removed from index", "documentId", documentId)
	return nil
}

func (s *Store) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_chunks`); err != nil {
		return 0, storeErr("count chunks", err)
	}
	return count, nil
}

func (s *Store) IndexedDocuments(ctx context.Context) (map[int64]ragModel.IndexedDocument, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT document_id, title, country, content_hash, chunk_count, indexed_at FROM indexed_documents`); err != nil {
		return nil, storeErr("list indexed documents", err)
	}
	out := make(map[int64]ragModel.IndexedDocument, len(rows))
	for _, r := range rows {
		out[r.DocumentId] = ragModel.IndexedDocument{
			DocumentId:  r.DocumentId,
			Title:       r.Title,
			Country:     r.Country,
			ContentHash: r.ContentHash,
			ChunkCount:  r.ChunkCount,
			IndexedAt:   time.UnixMilli(r.IndexedAtMs),
		}
	}
	return out, nil
}

// TouchDocument moves indexed_at forward for a document whose content did
// not change. Searchable state is untouched, so the index version stays.
func (s *Store) TouchDocument(ctx context.Context, documentId int64, indexedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE indexed_documents SET indexed_at = ? WHERE document_id = ?`,
		indexedAt.UnixMilli(), documentId); err != nil {
		return storeErr("touch indexed document", err)
	}
	return nil
}

// IndexVersion increases on every committed write.
func (s *Store) IndexVersion(ctx context.Context) (int64, error) {
	var version int64
	if err := s.db.GetContext(ctx, &version, `SELECT version FROM index_state WHERE id = 1`); err != nil {
		return 0, storeErr("read index version", err)
	}
	return version, nil
}

// Reset empties the index and forgets its dimension so a different
// embedding model can be used.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin reset", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM document_chunks`,
		`DELETE FROM indexed_documents`,
		`UPDATE index_state SET version = version + 1, dimension = 0 WHERE id = 1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return storeErr("reset index", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit reset", err)
	}
	s.logger.WithContext(ctx).Warn("Index reset")
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ragModel.ErrStoreUnavailable, op, err)
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
