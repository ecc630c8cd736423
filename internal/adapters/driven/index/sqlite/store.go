// Package sqlite provides a SQLite-backed vector index. Vectors are stored
// as little-endian float32 blobs and scored with a cosine scan in Go, which
// is plenty for the corpus sizes a per-tenant policy collection sees.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/policybot/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/policybot/internal/core/domain"
	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorIndex = (*Store)(nil)
	_ driven.IngestLog   = (*Store)(nil)
)

// Store is a SQLite-backed vector index and ingest log. One database file
// per collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore opens (or creates) the index database for a collection under
// dataDir. If dataDir is empty, defaults to ~/.policybot/data.
func NewStore(dataDir, collection string) (*Store, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: getting home directory: %w", domain.ErrIndexUnavailable, err)
		}
		dataDir = filepath.Join(home, ".policybot", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrIndexUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, collection+".db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIndexUnavailable, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %w", domain.ErrIndexUnavailable, err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrIndexUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the collection name this index writes to.
func (s *Store) Collection() string {
	return s.collection
}

// migrate applies pending .up.sql migrations from the embedded filesystem.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert writes all items in one transaction or none at all. Pre-existing
// ids roll the whole batch back with domain.ErrDuplicateChunk.
func (s *Store) Upsert(ctx context.Context, items []driven.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Duplicate check up front so the caller gets the domain error rather
	// than a driver-specific constraint failure.
	checkStmt, err := tx.PrepareContext(ctx, "SELECT COUNT(*) FROM chunks WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing duplicate check: %w", err)
	}
	defer checkStmt.Close()

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: %s repeated in batch", domain.ErrDuplicateChunk, item.ID)
		}
		seen[item.ID] = struct{}{}

		var count int
		if err := checkStmt.QueryRowContext(ctx, item.ID).Scan(&count); err != nil {
			return fmt.Errorf("checking chunk %s: %w", item.ID, err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, item.ID)
		}
	}

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, tenant, doc_name, ordinal, content, source_file, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insertStmt.Close()

	for _, item := range items {
		blob := float32SliceToBytes(item.Embedding)
		if _, err := insertStmt.ExecContext(ctx, item.ID, item.Tenant, item.DocName,
			item.Ordinal, item.Content, item.SourceFile, blob); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scans the tenant's chunks and returns up to k results, best-first
// by cosine similarity.
func (s *Store) Search(ctx context.Context, tenant string, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant, doc_name, ordinal, content, source_file, embedding
		FROM chunks WHERE tenant = ?
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Tenant, &chunk.DocName, &chunk.Ordinal,
			&chunk.Content, &chunk.SourceFile, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(query) {
			// Stale row from a different embedding configuration.
			logger.Warn("skipping chunk %s: stored dims %d != query dims %d",
				chunk.ID, len(embedding), len(query))
			continue
		}

		results = append(results, domain.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteDocument removes all chunks of one document.
func (s *Store) DeleteDocument(ctx context.Context, tenant, docName string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE tenant = ? AND doc_name = ?", tenant, docName)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	return int(deleted), nil
}

// ListDocuments returns the tenant's documents with chunk counts and the
// most recent ingest time.
func (s *Store) ListDocuments(ctx context.Context, tenant string) ([]domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_name, COUNT(*), MAX(created_at)
		FROM chunks WHERE tenant = ?
		GROUP BY doc_name
		ORDER BY doc_name
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentInfo
	for rows.Next() {
		info := domain.DocumentInfo{Tenant: tenant}
		if err := rows.Scan(&info.DocName, &info.ChunkCount, &info.LastIngestedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// VerifyModel checks the embedding model identity against the collection
// row, recording it on first contact.
func (s *Store) VerifyModel(ctx context.Context, model string, dims int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var storedModel string
	var storedDims int
	err = tx.QueryRowContext(ctx,
		"SELECT embedding_model, embedding_dims FROM collections WHERE name = ?",
		s.collection).Scan(&storedModel, &storedDims)

	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collections (name, embedding_model, embedding_dims) VALUES (?, ?, ?)",
			s.collection, model, dims); err != nil {
			return fmt.Errorf("recording collection model: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading collection model: %w", err)
	default:
		if storedModel != model || storedDims != dims {
			return fmt.Errorf("%w: collection %q uses %s (%d dims), got %s (%d dims)",
				domain.ErrModelMismatch, s.collection, storedModel, storedDims, model, dims)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Record persists one ingest-log row.
func (s *Store) Record(ctx context.Context, rec domain.IngestRecord) error {
	id := rec.IngestID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_log (id, tenant, doc_name, source_file, chunks_added, embedding_model)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, rec.Tenant, rec.DocName, rec.SourceFile, rec.ChunksAdded, rec.Model)
	if err != nil {
		return fmt.Errorf("recording ingest: %w", err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
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

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
