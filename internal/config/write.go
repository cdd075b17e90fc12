package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// fileConfig mirrors Config with durations as strings, which is how
// humans write them and how viper reads them back.
type fileConfig struct {
	Version        int                     `yaml:"version"`
	Endpoints      []string                `yaml:"endpoints"`
	ReconnectDelay string                  `yaml:"reconnect_delay"`
	CycleRestart   string                  `yaml:"cycle_restart"`
	DialTimeout    string                  `yaml:"dial_timeout"`
	WriteTimeout   string                  `yaml:"write_timeout"`
	PingInterval   string                  `yaml:"ping_interval"`
	HistorySize    int                     `yaml:"history_size"`
	DefaultTicker  string                  `yaml:"default_ticker"`
	Params         protocol.StrategyParams `yaml:"params"`
	Output         OutputConfig            `yaml:"output"`
}

func toFile(cfg *Config) fileConfig {
	return fileConfig{
		Version:        cfg.Version,
		Endpoints:      cfg.Endpoints,
		ReconnectDelay: cfg.ReconnectDelay.String(),
		CycleRestart:   cfg.CycleRestart.String(),
		DialTimeout:    cfg.DialTimeout.String(),
		WriteTimeout:   cfg.WriteTimeout.String(),
		PingInterval:   cfg.PingInterval.String(),
		HistorySize:    cfg.HistorySize,
		DefaultTicker:  cfg.DefaultTicker,
		Params:         cfg.Params,
		Output:         cfg.Output,
	}
}

const fileHeader = `# sigmon configuration
# Endpoints are tried in order; reconnect_delay separates attempts.
# cycle_restart > 0 starts over from the first endpoint after all fail.
`

// Marshal renders cfg as a .sigmon.yaml document.
func Marshal(cfg *Config) ([]byte, error) {
	var buf strings.Builder
	buf.WriteString(fileHeader)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(toFile(cfg)); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	return []byte(buf.String()), nil
}

// Write saves cfg to path. An existing file is left alone unless force.
func Write(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s already exists", path),
				"Use --force to overwrite it.")
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Cannot create config directory", "Check directory permissions")
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to write config file", "Check file permissions")
	}
	return nil
}

// SetDefaultTicker records default_ticker in an existing config file.
// It preserves the existing YAML structure and comments.
func SetDefaultTicker(configPath, ticker string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to read config file", "Run 'sigmon init' first")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to parse config file", "Check the YAML syntax in "+configPath)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return errors.New(errors.ErrConfig, "Invalid YAML document structure", "")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig, "Expected mapping at document root", "")
	}

	if valueNode := findMapValue(docNode, "default_ticker"); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = ticker
	} else {
		docNode.Content = append(docNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "default_ticker"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ticker},
		)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to write config file", "Check file permissions")
	}
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
