// Package backend selects an embedding backend from an ordered fallback
// chain of candidates.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marekhanus/vecfall/internal/config"
	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Candidate is one entry in the fallback chain: a name plus a constructor.
// Construction and initialization happen only when the candidate's turn
// comes; earlier successes skip later candidates entirely.
type Candidate struct {
	Name  string
	Build func() (provider.EmbeddingProvider, error)
}

// Attempt records the outcome of one tried candidate.
type Attempt struct {
	Name string
	Err  error
}

// Candidates builds the ordered fallback chain from a fully-resolved
// configuration. The chain holds remote backends whose credential is
// present, in priority order (Jina before OpenAI), and always ends with
// the keyless Ollama candidate. Pinning a backend via cfg.Backend moves
// it to the head of the chain without removing the local fallback.
//
// The config must already be resolved (see config.ResolveEnv); this
// package never reads the environment.
func Candidates(cfg *config.EmbeddingConfig, reg *provider.Registry) []Candidate {
	build := func(name string, pc provider.EmbeddingConfig) Candidate {
		return Candidate{
			Name: name,
			Build: func() (provider.EmbeddingProvider, error) {
				return reg.CreateEmbedding(name, pc)
			},
		}
	}

	jina := build("jina", provider.EmbeddingConfig{
		Backend: types.BackendJina,
		Model:   cfg.Model,
		APIKey:  cfg.JinaAPIKey,
	})
	openai := build("openai", provider.EmbeddingConfig{
		Backend: types.BackendOpenAI,
		Model:   cfg.Model,
		APIKey:  cfg.OpenAIAPIKey,
	})
	ollama := build("ollama", provider.EmbeddingConfig{
		Backend: types.BackendOllama,
		Model:   cfg.Model,
		BaseURL: cfg.OllamaURL,
	})

	switch types.Backend(cfg.Backend) {
	case types.BackendJina:
		return []Candidate{jina, ollama}
	case types.BackendOpenAI:
		return []Candidate{openai, ollama}
	case types.BackendOllama, types.BackendLocal:
		// "local" is served by the Ollama client for now; the enum value
		// stays distinct so a non-network path can take it over later.
		return []Candidate{ollama}
	}

	var chain []Candidate
	if cfg.JinaAPIKey != "" {
		chain = append(chain, jina)
	}
	if cfg.OpenAIAPIKey != "" {
		chain = append(chain, openai)
	}
	chain = append(chain, ollama)
	return chain
}

// Select tries candidates strictly in order until one both constructs and
// initializes successfully. First success wins: no retries, no parallel
// trials. Failures are logged and the next candidate is tried; when every
// candidate fails, the returned error wraps types.ErrAllBackendsFailed and
// names both remediation options.
func Select(ctx context.Context, candidates []Candidate, logger *slog.Logger) (provider.EmbeddingProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var attempts []Attempt
	for _, cand := range candidates {
		p, err := cand.Build()
		if err != nil {
			logger.Warn("embedding backend unavailable", "backend", cand.Name, "error", err)
			attempts = append(attempts, Attempt{Name: cand.Name, Err: err})
			continue
		}

		if err := p.Initialize(ctx); err != nil {
			logger.Warn("embedding backend failed to initialize", "backend", cand.Name, "error", err)
			p.Close()
			attempts = append(attempts, Attempt{Name: cand.Name, Err: err})
			continue
		}

		logger.Info("embedding backend selected", "backend", p.Name(), "dimensions", p.Dimensions())
		return p, nil
	}

	return nil, allFailed(attempts)
}

// allFailed builds the terminal error from the recorded attempts.
func allFailed(attempts []Attempt) error {
	var details []string
	for _, a := range attempts {
		details = append(details, fmt.Sprintf("%s: %v", a.Name, a.Err))
	}

	return fmt.Errorf(
		"%w: no embedding backend could be initialized (%s); "+
			"start a local Ollama server (https://ollama.com) or set %s or %s",
		types.ErrAllBackendsFailed,
		strings.Join(details, "; "),
		config.EnvJinaAPIKey,
		config.EnvOpenAIAPIKey,
	)
}
