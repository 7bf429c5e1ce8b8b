// Package host provides the plugin host for loading external embedding
// providers.
package host

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/marekhanus/vecfall/pkg/plugin/shared"
)

// Manager manages external plugins.
type Manager struct {
	pluginsDir string
	plugins    map[string]*LoadedPlugin
	mu         sync.RWMutex
	logger     hclog.Logger
}

// LoadedPlugin represents a loaded plugin.
type LoadedPlugin struct {
	Name      string
	Path      string
	Client    *plugin.Client
	Embedding shared.EmbeddingProvider
}

// NewManager creates a new plugin manager.
func NewManager(pluginsDir string) *Manager {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "plugins",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	return &Manager{
		pluginsDir: pluginsDir,
		plugins:    make(map[string]*LoadedPlugin),
		logger:     logger,
	}
}

// DiscoverPlugins discovers available plugins in the plugins directory.
func (m *Manager) DiscoverPlugins() ([]string, error) {
	if _, err := os.Stat(m.pluginsDir); os.IsNotExist(err) {
		return nil, nil // No plugins directory
	}

	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var plugins []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(m.pluginsDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		// Check if executable
		if info.Mode()&0111 != 0 {
			plugins = append(plugins, entry.Name())
		}
	}

	return plugins, nil
}

// LoadPlugin loads an embedding plugin by name.
func (m *Manager) LoadPlugin(name string) (*LoadedPlugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, exists := m.plugins[name]; exists {
		return p, nil
	}

	pluginPath := filepath.Join(m.pluginsDir, name)
	if _, err := os.Stat(pluginPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("plugin not found: %s", name)
	}

	slog.Info("loading plugin", "name", name, "path", pluginPath)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: shared.Handshake,
		Plugins:         shared.PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          m.logger,
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense(string(shared.PluginTypeEmbedding))
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	embedding, ok := raw.(shared.EmbeddingProvider)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin does not implement EmbeddingProvider")
	}

	loaded := &LoadedPlugin{
		Name:      name,
		Path:      pluginPath,
		Client:    client,
		Embedding: embedding,
	}

	m.plugins[name] = loaded
	slog.Info("plugin loaded", "name", name)

	return loaded, nil
}

// GetEmbeddingPlugin returns a loaded embedding plugin.
func (m *Manager) GetEmbeddingPlugin(name string) (shared.EmbeddingProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.plugins[name]
	if !exists {
		return nil, fmt.Errorf("plugin not loaded: %s", name)
	}

	return p.Embedding, nil
}

// UnloadPlugin unloads a plugin.
func (m *Manager) UnloadPlugin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.plugins[name]
	if !exists {
		return nil
	}

	if p.Embedding != nil {
		p.Embedding.Close()
	}

	p.Client.Kill()
	delete(m.plugins, name)

	slog.Info("plugin unloaded", "name", name)
	return nil
}

// UnloadAll unloads all plugins.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		m.UnloadPlugin(name)
	}
}
