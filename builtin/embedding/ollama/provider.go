// Package ollama implements EmbeddingProvider using Ollama's API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Default values
const (
	DefaultModel   = "nomic-embed-text"
	DefaultBaseURL = "http://localhost:11434"

	// DefaultDimensions is the nomic-embed-text dimension, used until the
	// first embedding reveals the actual size.
	DefaultDimensions = 768
)

// Config contains Ollama provider configuration.
type Config struct {
	Model   string
	BaseURL string
}

// Provider implements the EmbeddingProvider interface for Ollama.
type Provider struct {
	config Config
	client *http.Client

	mu         sync.RWMutex
	dimensions int
}

// New creates a new Ollama embedding provider. Ollama requires no
// credential, so construction never fails.
func New(cfg Config) *Provider {
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
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ollama"
}

// Initialize checks that the server is running and the model is present.
func (p *Provider) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/api/version", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama not reachable at %s: %v", types.ErrProviderNotAvailable, p.config.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &types.APIError{
			Provider:   "ollama",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return p.checkModel(ctx)
}

// checkModel verifies the configured model exists on the server.
func (p *Provider) checkModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{"name": p.config.Model})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/show", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("ollama: model %s not found, run: ollama pull %s", p.config.Model, p.config.Model)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &types.APIError{
			Provider:   "ollama",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return nil
}

// Embed generates an embedding for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedSingle(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cacheDimensions(len(vec))
	return vec, nil
}

// EmbedBatch generates embeddings for the given texts. Ollama's embeddings
// endpoint takes one prompt per request, so texts are embedded
// sequentially, preserving input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.embedSingle(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama: embed text %d: %w", i, err)
		}
		embeddings[i] = vec
	}

	p.cacheDimensions(len(embeddings[0]))
	return embeddings, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *Provider) embedSingle(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model:  p.config.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &types.APIError{
			Provider:   "ollama",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Embedding, nil
}

// cacheDimensions records the dimension from the first successful result.
func (p *Provider) cacheDimensions(n int) {
	if n == 0 {
		return
	}
	p.mu.Lock()
	if p.dimensions == 0 {
		p.dimensions = n
	}
	p.mu.Unlock()
}

// Dimensions returns the embedding dimensions, auto-detected from the
// first embedding or the model default before that.
func (p *Provider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.dimensions > 0 {
		return p.dimensions
	}
	return DefaultDimensions
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// Ensure Provider implements EmbeddingProvider interface
var _ provider.EmbeddingProvider = (*Provider)(nil)
