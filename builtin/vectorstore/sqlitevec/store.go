// Package sqlitevec implements VectorStore using sqlite-vec for cosine
// distance search over document embeddings.
package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// Ensure sqlite-vec Auto() is called exactly once before any db connection
	vecAutoOnce sync.Once
)

// Store implements the VectorStore interface using sqlite-vec.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a new sqlite-vec store.
func New() *Store {
	return &Store{}
}

// Name returns the store name.
func (s *Store) Name() string {
	return "sqlitevec"
}

// Init initializes the store at the given path.
func (s *Store) Init(path string) error {
	s.path = path

	// Register sqlite-vec before opening any database connection so the
	// vec_* functions are available.
	vecAutoOnce.Do(func() {
		sqlite_vec.Auto()
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode for concurrent reads, busy_timeout to wait for locks.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := db.Exec("SELECT vec_version()"); err != nil {
		return fmt.Errorf("sqlite-vec extension not available: %w", err)
	}

	if err := s.createSchema(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS document_embeddings (
			doc_id TEXT PRIMARY KEY,
			embedding BLOB NOT NULL
		)
	`)
	return err
}

// Upsert stores documents with their embeddings in one transaction.
func (s *Store) Upsert(ctx context.Context, docs []*types.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", types.ErrStoreFailed, err)
	}
	defer tx.Rollback()

	docStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO documents (id, content, metadata)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	embStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO document_embeddings (doc_id, embedding)
		VALUES (?, ?)
	`)
	if err != nil {
		return err
	}
	defer embStmt.Close()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has no embedding", types.ErrStoreFailed, doc.ID)
		}
		if _, err := docStmt.Exec(doc.ID, doc.Content, doc.Metadata); err != nil {
			return fmt.Errorf("%w: store document %s: %v", types.ErrStoreFailed, doc.ID, err)
		}
		if _, err := embStmt.Exec(doc.ID, floatsToBytes(doc.Embedding)); err != nil {
			return fmt.Errorf("%w: store embedding %s: %v", types.ErrStoreFailed, doc.ID, err)
		}
	}

	if err := s.setDimensions(tx, len(docs[0].Embedding)); err != nil {
		return err
	}

	return tx.Commit()
}

// Query returns up to limit documents closest to the query vector.
func (s *Store) Query(ctx context.Context, vector []float32, limit int) ([]*types.QueryResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is required", types.ErrStoreFailed)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			d.id, d.content, d.metadata, d.created_at,
			vec_distance_cosine(e.embedding, ?) AS distance
		FROM document_embeddings e
		JOIN documents d ON e.doc_id = d.id
		ORDER BY distance
		LIMIT ?
	`, floatsToBytes(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", types.ErrStoreFailed, err)
	}
	defer rows.Close()

	var results []*types.QueryResult
	for rows.Next() {
		var (
			doc      types.Document
			metadata sql.NullString
			created  time.Time
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadata, &created, &distance); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", types.ErrStoreFailed, err)
		}
		doc.Metadata = metadata.String
		doc.CreatedAt = created
		results = append(results, &types.QueryResult{
			Document: &doc,
			Distance: distance,
		})
	}
	return results, rows.Err()
}

// Delete removes documents by ID.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_embeddings WHERE doc_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("%w: delete embeddings: %v", types.ErrStoreFailed, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("%w: delete documents: %v", types.ErrStoreFailed, err)
	}
	return nil
}

// Stats returns store statistics.
func (s *Store) Stats() (*types.StoreStats, error) {
	stats := &types.StoreStats{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&stats.Documents); err != nil {
		return nil, fmt.Errorf("%w: count: %v", types.ErrStoreFailed, err)
	}

	var dims string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'dimensions'`).Scan(&dims)
	if err == nil {
		stats.Dimensions, _ = strconv.Atoi(dims)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: metadata: %v", types.ErrStoreFailed, err)
	}

	var lastUpsert sql.NullTime
	if err := s.db.QueryRow(`SELECT MAX(created_at) FROM documents`).Scan(&lastUpsert); err == nil && lastUpsert.Valid {
		stats.LastUpsert = lastUpsert.Time
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DBSizeBytes = info.Size()
	}

	return stats, nil
}

// Close releases resources and closes connections.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) setDimensions(tx *sql.Tx, dims int) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO metadata (key, value)
		VALUES ('dimensions', ?)
	`, strconv.Itoa(dims))
	return err
}

// floatsToBytes converts float32 slice to bytes for sqlite-vec.
func floatsToBytes(floats []float32) []byte {
	bytes := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		bytes[i*4] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	return bytes
}

// Ensure Store implements VectorStore interface
var _ provider.VectorStore = (*Store)(nil)
