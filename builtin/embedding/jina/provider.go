// Package jina implements EmbeddingProvider using the Jina AI embeddings API.
package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Default values
const (
	DefaultModel   = "jina-embeddings-v3"
	DefaultBaseURL = "https://api.jina.ai/v1"

	// Dimensions is fixed for jina-embeddings-v3.
	Dimensions = 1024
)

// Config contains Jina provider configuration.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
}

// Provider implements the EmbeddingProvider interface for Jina AI.
type Provider struct {
	config Config
	client *http.Client
}

// New creates a new Jina embedding provider. It fails when no API key is
// supplied; Jina has no keyless mode.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("jina: %w (set JINA_API_KEY)", types.ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Provider{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "jina"
}

// Initialize validates the API key with a live single-text embedding call.
func (p *Provider) Initialize(ctx context.Context) error {
	if _, err := p.Embed(ctx, "initialization check"); err != nil {
		return fmt.Errorf("jina initialization failed: %w", err)
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

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch generates embeddings for the given texts in one request.
// The Jina API returns vectors in request order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{
		Model: p.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("jina: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jina: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &types.APIError{
			Provider:   "jina",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("jina: decode response: %w", err)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("jina: got %d embeddings for %d inputs", len(result.Data), len(texts))
	}

	embeddings := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimensions.
func (p *Provider) Dimensions() int {
	return Dimensions
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// Ensure Provider implements EmbeddingProvider interface
var _ provider.EmbeddingProvider = (*Provider)(nil)
