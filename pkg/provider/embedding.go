// Package provider defines interfaces for pluggable components.
package provider

import (
	"context"

	"github.com/marekhanus/vecfall/pkg/types"
)

// EmbeddingProvider generates vector embeddings from text.
//
// Implementations own their credentials and HTTP endpoint and share no
// mutable state with other providers. A provider is constructed once,
// discarded if Initialize fails, and otherwise retained by the caller for
// the process lifetime. Embed and EmbedBatch are independent requests;
// implementations perform no internal batching coordination.
type EmbeddingProvider interface {
	// Name returns the provider name (e.g., "ollama", "openai", "jina").
	Name() string

	// Initialize validates credentials and availability. It must fail if
	// the provider is unreachable or misconfigured.
	Initialize(ctx context.Context) error

	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for the given texts. The result has
	// one vector per input, in input order, regardless of how the
	// underlying API orders its response.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension size, fixed per
	// provider/model pair.
	Dimensions() int

	// Close releases any resources.
	Close() error
}

// EmbeddingConfig contains configuration for embedding providers.
// It is immutable once passed to a provider constructor.
type EmbeddingConfig struct {
	Backend types.Backend // jina, openai, local, ollama
	Model   string        // model name, provider default when empty
	APIKey  string        // API key (jina, openai)
	BaseURL string        // API endpoint override
}
