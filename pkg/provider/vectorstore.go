package provider

import (
	"context"

	"github.com/marekhanus/vecfall/pkg/types"
)

// VectorStore stores documents with their embeddings and answers
// nearest-neighbor queries.
type VectorStore interface {
	// Name returns the store name (e.g., "sqlitevec").
	Name() string

	// Init initializes the store at the given path.
	Init(path string) error

	// Upsert stores documents with their embeddings, replacing any
	// existing documents with the same IDs.
	Upsert(ctx context.Context, docs []*types.Document) error

	// Query returns up to limit documents closest to the query vector,
	// ordered by ascending distance.
	Query(ctx context.Context, vector []float32, limit int) ([]*types.QueryResult, error)

	// Delete removes documents by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Stats returns store statistics.
	Stats() (*types.StoreStats, error)

	// Close releases resources and closes connections.
	Close() error
}

// VectorStoreConfig contains configuration for vector stores.
type VectorStoreConfig struct {
	Provider string // "sqlitevec"
	Path     string // path to database file
}
