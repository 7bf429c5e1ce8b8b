// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/marekhanus/vecfall/pkg/types"
)

// Environment variables consumed by ResolveEnv. They are fallback values
// only; explicit configuration always wins.
const (
	EnvBackend      = "VECFALL_BACKEND"
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// Config represents the complete configuration.
type Config struct {
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Plugins   PluginsConfig   `mapstructure:"plugins" yaml:"plugins"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// EmbeddingConfig contains embedding backend configuration.
type EmbeddingConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`               // jina, openai, local, ollama; empty = auto-select
	Model        string `mapstructure:"model" yaml:"model"`                   // model name, provider default when empty
	JinaAPIKey   string `mapstructure:"jina_api_key" yaml:"jina_api_key"`     // Jina credential
	OpenAIAPIKey string `mapstructure:"openai_api_key" yaml:"openai_api_key"` // OpenAI credential
	OllamaURL    string `mapstructure:"ollama_url" yaml:"ollama_url"`         // Ollama base URL
}

// StoreConfig contains vector store configuration.
type StoreConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // sqlitevec
	Path     string `mapstructure:"path" yaml:"path"`         // database file, ConfigDir default when empty
}

// PluginsConfig contains external plugin configuration.
type PluginsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"` // plugins directory, ConfigDir default when empty
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Backend:   "",
			OllamaURL: "http://localhost:11434",
		},
		Store: StoreConfig{
			Provider: "sqlitevec",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the path to the .vecfall directory.
func ConfigDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".vecfall")
}

// ConfigPath returns the path to config.yaml.
func ConfigPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "config.yaml")
}

// StoreDBPath returns the default path to the vector store database.
func StoreDBPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "store.db")
}

// PluginsDir returns the default plugins directory.
func PluginsDir(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "plugins")
}

// Load loads configuration from file, falling back to defaults.
func Load(projectRoot string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(projectRoot)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	if cfg.Embedding.OllamaURL == "" {
		cfg.Embedding.OllamaURL = "http://localhost:11434"
	}
	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "sqlitevec"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, warnings, nil
}

// Save saves configuration to file.
func Save(projectRoot string, cfg *Config) error {
	configDir := ConfigDir(projectRoot)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(projectRoot))
	v.SetConfigType("yaml")

	v.Set("embedding", cfg.Embedding)
	v.Set("store", cfg.Store)
	v.Set("plugins", cfg.Plugins)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// ResolveEnv fills credentials and endpoints from the process environment
// where the config leaves them empty. The core selection logic never reads
// the environment itself; this adapter is the single place ambient state
// enters the configuration.
func ResolveEnv(cfg *Config) {
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = os.Getenv(EnvBackend)
	}
	if cfg.Embedding.JinaAPIKey == "" {
		cfg.Embedding.JinaAPIKey = os.Getenv(EnvJinaAPIKey)
	}
	if cfg.Embedding.OpenAIAPIKey == "" {
		cfg.Embedding.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if host := os.Getenv(EnvOllamaHost); host != "" && (cfg.Embedding.OllamaURL == "" || cfg.Embedding.OllamaURL == "http://localhost:11434") {
		cfg.Embedding.OllamaURL = host
	}
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Embedding.Backend != "" && !types.Backend(cfg.Embedding.Backend).Valid() {
		errs = append(errs, fmt.Errorf("%w: invalid embedding backend: %s", types.ErrInvalidConfig, cfg.Embedding.Backend))
	}

	validStoreProviders := map[string]bool{
		"sqlitevec": true, "mock": true,
	}
	if !validStoreProviders[cfg.Store.Provider] {
		errs = append(errs, fmt.Errorf("%w: invalid store provider: %s", types.ErrInvalidConfig, cfg.Store.Provider))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("%w: invalid log level: %s", types.ErrInvalidConfig, cfg.Logging.Level))
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true, "": true,
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("%w: invalid log format: %s", types.ErrInvalidConfig, cfg.Logging.Format))
	}

	return errs
}
