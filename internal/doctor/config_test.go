package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

func TestConfigFileCheckMissingIsFixable(t *testing.T) {
	dir := isolate(t)
	initPath := filepath.Join(dir, config.ConfigFileName)

	check := &ConfigFileCheck{InitPath: initPath}
	result := check.Run(context.Background())
	assert.Equal(t, StatusWarn, result.Status)
	assert.True(t, result.Fixable)

	require.NoError(t, check.Fix())
	result = check.Run(context.Background())
	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, config.ConfigFileName)
}

func TestConfigFileCheckWithoutInitPathIsNotFixable(t *testing.T) {
	isolate(t)

	check := &ConfigFileCheck{}
	result := check.Run(context.Background())
	assert.False(t, result.Fixable)
	assert.NoError(t, check.Fix())
}

func TestConfigSchemaCheck(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, config.ConfigFileName)

	cfg := config.DefaultConfig()
	cfg.Endpoints = []string{"ws://a:1/ws", "ws://b:2/ws"}
	cfg.DefaultTicker = "SBER"
	require.NoError(t, config.Write(path, cfg, false))

	result := (&ConfigSchemaCheck{ConfigPath: path}).Run(context.Background())
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "Schema valid, 2 endpoints, default ticker SBER", result.Message)
}

func TestConfigSchemaCheckInvalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nendpoints: [\"http://nope\"]\n"), 0644))

	result := (&ConfigSchemaCheck{ConfigPath: path}).Run(context.Background())
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "Config is invalid")
	assert.NotContains(t, result.Message, "\n")
}

func TestEnvOverrideCheck(t *testing.T) {
	check := &EnvOverrideCheck{Environ: func() []string {
		return []string{"HOME=/root", "SIGMON_ENDPOINTS=ws://x", "SIGMON_DEBUG=1", "SIGMONX=1"}
	}}
	result := check.Run(context.Background())
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "Environment overrides: SIGMON_DEBUG, SIGMON_ENDPOINTS", result.Message)

	check.Environ = func() []string { return nil }
	assert.Equal(t, "No SIGMON_* overrides", check.Run(context.Background()).Message)
}

func TestNewConfigChecks(t *testing.T) {
	checks := NewConfigChecks("", "x")
	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.Equal(t, "CONFIG", c.Category())
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Bad thing", firstLine("✗ Bad thing\n\n  details\n"))
	assert.Equal(t, "plain", firstLine("plain"))
}
