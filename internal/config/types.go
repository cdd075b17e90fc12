package config

import (
	"time"

	"github.com/rileyhilliard/sigmon/internal/history"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultEndpoint is where a locally running engine listens.
const DefaultEndpoint = "ws://127.0.0.1:8765/ws"

// Config represents the complete .sigmon.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Endpoints are tried in order on every connection cycle.
	Endpoints []string `yaml:"endpoints" mapstructure:"endpoints"`

	// ReconnectDelay is the pause before trying the next endpoint.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`

	// CycleRestart restarts from the first endpoint once every endpoint has
	// failed. Zero leaves the client in ERROR until reconnected by hand.
	CycleRestart time.Duration `yaml:"cycle_restart" mapstructure:"cycle_restart"`

	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// PingInterval is the websocket keepalive period. Zero disables pings.
	PingInterval time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`

	// HistorySize is how many score samples the trend keeps.
	HistorySize int `yaml:"history_size" mapstructure:"history_size"`

	// DefaultTicker is switched to after the engine lists its instruments.
	DefaultTicker string `yaml:"default_ticker" mapstructure:"default_ticker"`

	// Params seeds the staged parameter set. It is never written back.
	Params protocol.StrategyParams `yaml:"params" mapstructure:"params"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentConfigVersion,
		Endpoints:      []string{DefaultEndpoint},
		ReconnectDelay: 300 * time.Millisecond,
		CycleRestart:   0,
		DialTimeout:    5 * time.Second,
		WriteTimeout:   2 * time.Second,
		PingInterval:   20 * time.Second,
		HistorySize:    history.DefaultSize,
		Params:         protocol.DefaultParams(),
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
