// Package shared defines shared interfaces and types for external plugins.
package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is a common handshake that is shared by plugin and host.
// Prevents plugins compiled with different versions from running.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "VECFALL_PLUGIN",
	MagicCookieValue: "vecfall-v1",
}

// PluginType identifies the type of plugin.
type PluginType string

const (
	PluginTypeEmbedding PluginType = "embedding"
)

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	string(PluginTypeEmbedding): &EmbeddingPlugin{},
}

// EmbeddingProvider is the interface that embedding plugins must implement.
// This mirrors pkg/provider.EmbeddingProvider but is self-contained for
// plugins: net/rpc cannot carry a context, so calls are plain.
type EmbeddingProvider interface {
	Name() string
	Initialize() error
	Embed(texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// EmbeddingPlugin is the plugin.Plugin implementation for embedding providers.
type EmbeddingPlugin struct {
	Impl EmbeddingProvider
}

func (p *EmbeddingPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &EmbeddingRPCServer{Impl: p.Impl}, nil
}

func (p *EmbeddingPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &EmbeddingRPCClient{client: c}, nil
}
