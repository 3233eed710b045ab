package remote_test

import (
	"path/filepath"
	"testing"

	"forest-backend/internal/core/remote"

	"github.com/stretchr/testify/assert"
)

func TestLoadPluginEngine_MissingExecutable(t *testing.T) {
	_, err := remote.LoadPluginEngine(filepath.Join(t.TempDir(), "no-such-engine"))
	assert.Error(t, err)
}

func TestPluginEngine_ReleaseIsIdempotent(t *testing.T) {
	engine := &remote.PluginEngine{}
	engine.Release()
	engine.Release()
}
