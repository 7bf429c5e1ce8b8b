// Package mock provides a test double for the provider.EmbeddingProvider
// interface. It returns deterministic hash-derived vectors without a live
// model and records every call for assertions.
package mock

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/marekhanus/vecfall/pkg/provider"
)

// Provider is a mock implementation of provider.EmbeddingProvider.
type Provider struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock".
	NameValue string

	// DimensionsValue is returned by Dimensions and sets the length of
	// generated vectors. Defaults to 8.
	DimensionsValue int

	// InitializeErr, if non-nil, is returned from Initialize.
	InitializeErr error

	// EmbedErr, if non-nil, is returned from Embed and EmbedBatch.
	EmbedErr error

	// InitializeCalls counts calls to Initialize.
	InitializeCalls int

	// EmbedTexts records every text passed to Embed or EmbedBatch, in order.
	EmbedTexts []string

	// Closed reports whether Close was called.
	Closed bool
}

// Name returns the configured provider name.
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// Initialize records the call and returns InitializeErr.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.InitializeCalls++
	return p.InitializeErr
}

// Embed returns a deterministic vector derived from hashing text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one deterministic vector per input text.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}

	dims := p.dims()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		p.EmbedTexts = append(p.EmbedTexts, text)
		out[i] = hashVector(text, dims)
	}
	return out, nil
}

// Dimensions returns the configured dimension count.
func (p *Provider) Dimensions() int {
	return p.dims()
}

// Close records the call.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

func (p *Provider) dims() int {
	if p.DimensionsValue == 0 {
		return 8
	}
	return p.DimensionsValue
}

// hashVector maps text to a fixed-length vector with values in [-1, 1].
func hashVector(text string, dims int) []float32 {
	vec := make([]float32, dims)
	hash := sha256.Sum256([]byte(text))
	for i := 0; i < dims; i++ {
		if i > 0 && i%32 == 0 {
			hash = sha256.Sum256(append(hash[:], byte(i/32)))
		}
		vec[i] = (float32(hash[i%32]) / 127.5) - 1.0
	}
	return vec
}

// Ensure Provider implements EmbeddingProvider at compile time.
var _ provider.EmbeddingProvider = (*Provider)(nil)
