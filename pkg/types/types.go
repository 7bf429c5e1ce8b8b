// Package types contains shared types used across vecfall.
package types

import "time"

// Backend identifies an embedding backend implementation.
type Backend string

const (
	// BackendJina is the Jina AI remote embedding API.
	BackendJina Backend = "jina"

	// BackendOpenAI is the OpenAI remote embedding API.
	BackendOpenAI Backend = "openai"

	// BackendLocal is a truly-local embedding path. It is currently served
	// by the Ollama client; the value is kept distinct so a non-network
	// implementation can be slotted in without a config migration.
	BackendLocal Backend = "local"

	// BackendOllama is an Ollama server, typically on localhost.
	BackendOllama Backend = "ollama"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendJina, BackendOpenAI, BackendLocal, BackendOllama:
		return true
	}
	return false
}

// Document is a text with an optional embedding, as stored in a vector store.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// QueryResult is a single vector store query hit.
type QueryResult struct {
	Document *Document `json:"document"`

	// Distance is the cosine distance to the query vector (lower is closer).
	Distance float64 `json:"distance"`
}

// StoreStats describes the state of a vector store.
type StoreStats struct {
	Documents   int64     `json:"documents"`
	Dimensions  int       `json:"dimensions"`
	DBSizeBytes int64     `json:"db_size_bytes"`
	LastUpsert  time.Time `json:"last_upsert"`
}
