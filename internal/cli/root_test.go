package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/config"
	sigerrors "github.com/rileyhilliard/sigmon/internal/errors"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  errors.New(`unknown command "foo" for "sigmon"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  errors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "other error",
			err:  errors.New("connection failed"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  errors.New(`unknown command "foo" for "sigmon"`),
			want: "foo",
		},
		{
			name: "command with hyphen",
			err:  errors.New(`unknown command "my-cmd" for "sigmon"`),
			want: "my-cmd",
		},
		{
			name: "no quotes returns empty",
			err:  errors.New("unknown command foo"),
			want: "",
		},
		{
			name: "single quote returns empty",
			err:  errors.New(`unknown command "foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestColorProfile(t *testing.T) {
	assert.Equal(t, termenv.Ascii, colorProfile("always", true, true), "--no-color wins")
	assert.Equal(t, termenv.Ascii, colorProfile("never", false, true))
	assert.Equal(t, termenv.TrueColor, colorProfile("always", false, false))
	assert.Equal(t, termenv.Ascii, colorProfile("auto", false, false), "piped output has no color")
}

func withGlobalFlags(t *testing.T) {
	t.Helper()
	origConfig, origEndpoints, origNoColor := configFlag, endpointFlags, noColorFlag
	t.Cleanup(func() {
		configFlag, endpointFlags, noColorFlag = origConfig, origEndpoints, origNoColor
	})
	configFlag, endpointFlags, noColorFlag = "", nil, true
}

func TestLoadConfigEndpointOverride(t *testing.T) {
	withGlobalFlags(t)
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, config.Write(path, config.DefaultConfig(), false))

	configFlag = path
	endpointFlags = []string{"ws://a:1/ws", "ws://b:2/ws"}

	cfg, got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, []string{"ws://a:1/ws", "ws://b:2/ws"}, cfg.Endpoints)
}

func TestLoadConfigRejectsBadEndpointFlag(t *testing.T) {
	withGlobalFlags(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	endpointFlags = []string{"http://not-a-websocket"}
	_, _, err := loadConfig()
	require.Error(t, err)
	assert.True(t, sigerrors.IsCode(err, sigerrors.ErrConfig))
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"watch", "tail", "params", "switch", "archive", "init", "doctor", "version"} {
		assert.True(t, names[want], want)
	}
}
