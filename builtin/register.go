// Package builtin registers all built-in providers with the default registry.
package builtin

import (
	jinaEmbed "github.com/marekhanus/vecfall/builtin/embedding/jina"
	ollamaEmbed "github.com/marekhanus/vecfall/builtin/embedding/ollama"
	openaiEmbed "github.com/marekhanus/vecfall/builtin/embedding/openai"
	"github.com/marekhanus/vecfall/builtin/vectorstore/sqlitevec"
	"github.com/marekhanus/vecfall/pkg/provider"
)

func init() {
	// Register embedding providers
	provider.RegisterEmbedding("jina", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return jinaEmbed.New(jinaEmbed.Config{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	})

	provider.RegisterEmbedding("openai", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return openaiEmbed.New(openaiEmbed.Config{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	})

	provider.RegisterEmbedding("ollama", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return ollamaEmbed.New(ollamaEmbed.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	})

	// Register vector stores
	provider.RegisterVectorStore("sqlitevec", func() (provider.VectorStore, error) {
		return sqlitevec.New(), nil
	})
}
