package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/config"
)

func TestInitCreatesConfig(t *testing.T) {
	withGlobalFlags(t)
	dir := t.TempDir()
	t.Chdir(dir)
	endpointFlags = []string{"ws://primary:8765/ws", "ws://backup:8765/ws"}

	var out bytes.Buffer
	require.NoError(t, initCommand(&out, false, false))
	assert.Contains(t, out.String(), "Created")

	cfg, err := config.Load(config.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, endpointFlags, cfg.Endpoints)
}

func TestInitRefusesExistingWithoutForce(t *testing.T) {
	withGlobalFlags(t)
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(config.ConfigFileName, []byte("version: 1\n"), 0644))

	err := initCommand(&bytes.Buffer{}, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, initCommand(&bytes.Buffer{}, true, false))
	cfg, err := config.Load(config.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultEndpoint}, cfg.Endpoints)
}
