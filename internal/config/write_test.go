package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/errors"
)

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	cfg := DefaultConfig()
	cfg.Endpoints = []string{"ws://a:1/ws", "ws://b:2/ws"}
	cfg.DefaultTicker = "SBER"
	cfg.Params.Threshold = 2.5

	require.NoError(t, Write(path, cfg, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reconnect_delay: 300ms")
	assert.Contains(t, string(data), "# sigmon configuration")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "version: 1\n")

	err := Write(path, DefaultConfig(), false)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	require.NoError(t, Write(path, DefaultConfig(), true))
}

func TestSetDefaultTicker(t *testing.T) {
	t.Run("adds key and keeps comments", func(t *testing.T) {
		path := writeConfig(t, "# my engines\nendpoints:\n  - ws://a:1/ws\n")

		require.NoError(t, SetDefaultTicker(path, "GAZP"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# my engines")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "GAZP", cfg.DefaultTicker)
		assert.Equal(t, []string{"ws://a:1/ws"}, cfg.Endpoints)
	})

	t.Run("replaces existing value", func(t *testing.T) {
		path := writeConfig(t, "default_ticker: SBER\n")

		require.NoError(t, SetDefaultTicker(path, "LKOH"))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "LKOH", cfg.DefaultTicker)
	})

	t.Run("missing file", func(t *testing.T) {
		err := SetDefaultTicker(filepath.Join(t.TempDir(), "none.yaml"), "X")
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})
}
