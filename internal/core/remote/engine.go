package remote

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"forest-backend/internal/core"
	"forest-backend/internal/core/types"
	"forest-backend/plugin/shared"

	"github.com/hashicorp/go-plugin"
)

// PluginEngine runs the engine in a separate process launched through
// go-plugin. Calls are serialized because the plugin client is shared.
type PluginEngine struct {
	mu     sync.Mutex
	client *plugin.Client
	engine core.Engine
}

var _ core.Engine = (*PluginEngine)(nil)

func LoadPluginEngine(executable string, args ...string) (*PluginEngine, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(executable, args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	raw, err := rpcClient.Dispense(shared.EnginePluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error dispensing '%s': %w", shared.EnginePluginName, err)
	}

	engine, ok := raw.(core.Engine)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed interface '%s' is not of expected type core.Engine (actual type: %T)", shared.EnginePluginName, raw)
	}

	return &PluginEngine{client: client, engine: engine}, nil
}

func (p *PluginEngine) Train(ctx context.Context, dataset *types.Dataset, params types.TrainParams) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return nil, fmt.Errorf("engine plugin has been released")
	}
	return p.engine.Train(ctx, dataset, params)
}

func (p *PluginEngine) Predict(ctx context.Context, model []byte, features []float64) (types.Prediction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return types.Prediction{}, fmt.Errorf("engine plugin has been released")
	}
	return p.engine.Predict(ctx, model, features)
}

func (p *PluginEngine) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return
	}

	p.client.Kill()
	p.client = nil
	p.engine = nil
}
