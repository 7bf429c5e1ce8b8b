package host

import (
	"context"
	"fmt"

	"github.com/marekhanus/vecfall/pkg/plugin/shared"
	"github.com/marekhanus/vecfall/pkg/provider"
)

// EmbeddingAdapter adapts a plugin EmbeddingProvider to the
// provider.EmbeddingProvider interface. The net/rpc protocol cannot carry
// a context, so the adapter checks ctx before each call and otherwise
// lets the call run to completion.
type EmbeddingAdapter struct {
	plugin shared.EmbeddingProvider
}

// NewEmbeddingAdapter creates a new embedding adapter.
func NewEmbeddingAdapter(p shared.EmbeddingProvider) *EmbeddingAdapter {
	return &EmbeddingAdapter{plugin: p}
}

// Name returns the provider name.
func (a *EmbeddingAdapter) Name() string {
	return a.plugin.Name()
}

// Initialize initializes the plugin provider.
func (a *EmbeddingAdapter) Initialize(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return a.plugin.Initialize()
}

// Embed generates an embedding for a single text.
func (a *EmbeddingAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for the given texts. The plugin runs out
// of process, so its output is not trusted to be well-formed.
func (a *EmbeddingAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	vecs, err := a.plugin.Embed(texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("plugin %s: got %d embeddings for %d inputs", a.plugin.Name(), len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the embedding dimensions.
func (a *EmbeddingAdapter) Dimensions() int {
	return a.plugin.Dimensions()
}

// Close closes the provider.
func (a *EmbeddingAdapter) Close() error {
	return a.plugin.Close()
}

// Ensure EmbeddingAdapter implements provider.EmbeddingProvider
var _ provider.EmbeddingProvider = (*EmbeddingAdapter)(nil)
