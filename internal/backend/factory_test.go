package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	embedmock "github.com/marekhanus/vecfall/builtin/embedding/mock"
	"github.com/marekhanus/vecfall/internal/config"
	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// newTestRegistry registers a mock factory per backend name so Candidates
// can be exercised without network providers. Factories for names in
// failInit produce providers whose Initialize fails; names in failBuild
// fail at construction.
func newTestRegistry(failBuild, failInit map[string]bool) *provider.Registry {
	reg := provider.NewRegistry()
	for _, name := range []string{"jina", "openai", "ollama"} {
		name := name
		reg.RegisterEmbedding(name, func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
			if failBuild[name] {
				return nil, fmt.Errorf("%s: %w", name, types.ErrMissingAPIKey)
			}
			p := &embedmock.Provider{NameValue: name}
			if failInit[name] {
				p.InitializeErr = fmt.Errorf("%s: %w", name, types.ErrProviderNotAvailable)
			}
			return p, nil
		})
	}
	return reg
}

func candidateNames(candidates []Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names
}

func TestCandidatesChain(t *testing.T) {
	reg := newTestRegistry(nil, nil)

	tests := []struct {
		name string
		cfg  config.EmbeddingConfig
		want []string
	}{
		{
			name: "no credentials",
			cfg:  config.EmbeddingConfig{},
			want: []string{"ollama"},
		},
		{
			name: "jina key only",
			cfg:  config.EmbeddingConfig{JinaAPIKey: "jk"},
			want: []string{"jina", "ollama"},
		},
		{
			name: "openai key only",
			cfg:  config.EmbeddingConfig{OpenAIAPIKey: "ok"},
			want: []string{"openai", "ollama"},
		},
		{
			name: "both keys, jina first",
			cfg:  config.EmbeddingConfig{JinaAPIKey: "jk", OpenAIAPIKey: "ok"},
			want: []string{"jina", "openai", "ollama"},
		},
		{
			name: "pinned openai keeps local fallback",
			cfg:  config.EmbeddingConfig{Backend: "openai", OpenAIAPIKey: "ok"},
			want: []string{"openai", "ollama"},
		},
		{
			name: "pinned jina keeps local fallback",
			cfg:  config.EmbeddingConfig{Backend: "jina", JinaAPIKey: "jk"},
			want: []string{"jina", "ollama"},
		},
		{
			name: "pinned ollama",
			cfg:  config.EmbeddingConfig{Backend: "ollama"},
			want: []string{"ollama"},
		},
		{
			name: "local maps to ollama",
			cfg:  config.EmbeddingConfig{Backend: "local"},
			want: []string{"ollama"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := candidateNames(Candidates(&tt.cfg, reg))
			if len(got) != len(tt.want) {
				t.Fatalf("Candidates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Candidates() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSelectFirstSuccessWins(t *testing.T) {
	reg := newTestRegistry(nil, nil)
	cfg := config.EmbeddingConfig{JinaAPIKey: "jk", OpenAIAPIKey: "ok"}

	p, err := Select(context.Background(), Candidates(&cfg, reg), nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != "jina" {
		t.Errorf("Select() picked %q, want jina (first in chain)", p.Name())
	}
}

func TestSelectFallsBackOnInitFailure(t *testing.T) {
	reg := newTestRegistry(nil, map[string]bool{"jina": true, "openai": true})
	cfg := config.EmbeddingConfig{JinaAPIKey: "jk", OpenAIAPIKey: "ok"}

	p, err := Select(context.Background(), Candidates(&cfg, reg), nil)
	if err != nil {
		t.Fatalf("Select() error = %v, want fallback to ollama", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Select() picked %q, want ollama", p.Name())
	}
}

func TestSelectFallsBackOnBuildFailure(t *testing.T) {
	reg := newTestRegistry(map[string]bool{"jina": true}, nil)
	cfg := config.EmbeddingConfig{JinaAPIKey: "jk"}

	p, err := Select(context.Background(), Candidates(&cfg, reg), nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Select() picked %q, want ollama", p.Name())
	}
}

func TestSelectClosesFailedProviders(t *testing.T) {
	var failed *embedmock.Provider

	reg := provider.NewRegistry()
	reg.RegisterEmbedding("jina", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		failed = &embedmock.Provider{NameValue: "jina", InitializeErr: errors.New("boom")}
		return failed, nil
	})
	reg.RegisterEmbedding("ollama", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return &embedmock.Provider{NameValue: "ollama"}, nil
	})

	cfg := config.EmbeddingConfig{JinaAPIKey: "jk"}
	if _, err := Select(context.Background(), Candidates(&cfg, reg), nil); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if failed == nil || !failed.Closed {
		t.Error("provider that failed Initialize should be closed")
	}
}

func TestSelectAllFailed(t *testing.T) {
	reg := newTestRegistry(nil, map[string]bool{"jina": true, "openai": true, "ollama": true})
	cfg := config.EmbeddingConfig{JinaAPIKey: "jk", OpenAIAPIKey: "ok"}

	_, err := Select(context.Background(), Candidates(&cfg, reg), nil)
	if err == nil {
		t.Fatal("Select() should fail when every candidate fails")
	}
	if !errors.Is(err, types.ErrAllBackendsFailed) {
		t.Errorf("error = %v, want ErrAllBackendsFailed", err)
	}

	// The single error names every attempt and both remediation options.
	msg := err.Error()
	for _, want := range []string{"jina", "openai", "ollama", "Ollama", config.EnvJinaAPIKey, config.EnvOpenAIAPIKey} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestSelectLazyConstruction(t *testing.T) {
	built := map[string]int{}

	reg := provider.NewRegistry()
	for _, name := range []string{"jina", "openai", "ollama"} {
		name := name
		reg.RegisterEmbedding(name, func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
			built[name]++
			return &embedmock.Provider{NameValue: name}, nil
		})
	}

	cfg := config.EmbeddingConfig{JinaAPIKey: "jk", OpenAIAPIKey: "ok"}
	if _, err := Select(context.Background(), Candidates(&cfg, reg), nil); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if built["jina"] != 1 {
		t.Errorf("jina built %d times, want 1", built["jina"])
	}
	if built["openai"] != 0 || built["ollama"] != 0 {
		t.Errorf("later candidates built (openai=%d, ollama=%d), want 0 after first success", built["openai"], built["ollama"])
	}
}
