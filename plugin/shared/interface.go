package shared

import (
	"net/rpc"

	"forest-backend/internal/core"

	"github.com/hashicorp/go-plugin"
)

const EnginePluginName = "engine"

// Handshake is shared by the worker and the engine plugin binary. A mismatch
// makes the worker refuse to load the plugin.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FOREST_ENGINE_PLUGIN",
	MagicCookieValue: "5c1f0c6e-random-forest-engine",
}

var PluginMap = map[string]plugin.Plugin{
	EnginePluginName: &EnginePlugin{},
}

// EnginePlugin exposes a core.Engine over net/rpc.
type EnginePlugin struct {
	Impl core.Engine
}

func (p *EnginePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (*EnginePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}
