// Package openai implements EmbeddingProvider using OpenAI's API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Default values
const (
	DefaultModel = "text-embedding-3-small"

	// DefaultDimensions is used for models not in the lookup table.
	DefaultDimensions = 1536
)

// Model dimensions for known models
var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// Config contains OpenAI provider configuration.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string // optional custom endpoint (Azure, proxies, tests)
}

// Provider implements the EmbeddingProvider interface for OpenAI.
type Provider struct {
	config     Config
	client     *openai.Client
	dimensions int
}

// New creates a new OpenAI embedding provider. It fails when no API key is
// supplied.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", types.ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = DefaultDimensions
	}

	return &Provider{
		config:     cfg,
		client:     openai.NewClientWithConfig(clientConfig),
		dimensions: dimensions,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Initialize validates the API key against the list-models endpoint. This
// avoids generating billable embeddings just to check credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai initialization failed: %w", wrapAPIError(err))
	}
	return nil
}

// Embed generates an embedding for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for the given texts in one request.
// The OpenAI API does not guarantee response order, so results are
// re-sorted by the returned index field.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", wrapAPIError(err))
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool {
		return data[i].Index < data[j].Index
	})

	embeddings := make([][]float32, len(data))
	for i, d := range data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimensions for the configured model.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// wrapAPIError converts go-openai request errors into types.APIError so
// callers see the HTTP status and body uniformly across providers.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &types.APIError{
			Provider:   "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &types.APIError{
			Provider:   "openai",
			StatusCode: reqErr.HTTPStatusCode,
			Body:       reqErr.Error(),
		}
	}
	return err
}

// Ensure Provider implements EmbeddingProvider interface
var _ provider.EmbeddingProvider = (*Provider)(nil)
