package main

import (
	"log"
	"os"

	"forest-backend/internal/core"
	"forest-backend/plugin/shared"

	"github.com/hashicorp/go-plugin"
)

// Engine plugin binary. The worker starts it when engine.plugin_path is set
// and passes the configured seed with -seed.
func main() {
	seed, err := shared.ParseEngineArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid engine arguments: %v", err)
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.Handshake,
		Plugins: map[string]plugin.Plugin{
			shared.EnginePluginName: &shared.EnginePlugin{Impl: core.NewForestEngine(seed)},
		},
	})
}
