package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/sigmon/internal/config"
)

// ConfigFileCheck verifies that a config file exists.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	InitPath   string // Where Fix writes a default config
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path or run 'sigmon init'",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using built-in defaults",
			Suggestion: "Run 'sigmon init' to create a .sigmon.yaml config file",
			Fixable:    c.InitPath != "",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// Fix writes a default config to InitPath.
func (c *ConfigFileCheck) Fix() error {
	if c.InitPath == "" {
		return nil
	}
	return config.Write(c.InitPath, config.DefaultConfig(), false)
}

// ConfigSchemaCheck verifies that the effective config loads and validates.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run(context.Context) CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Config is invalid: %s", firstLine(err.Error())),
			Suggestion: "Fix the reported setting in .sigmon.yaml or the SIGMON_* environment",
		}
	}

	n := len(cfg.Endpoints)
	msg := fmt.Sprintf("Schema valid, %d endpoint%s", n, pluralize(n))
	if cfg.DefaultTicker != "" {
		msg += ", default ticker " + cfg.DefaultTicker
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Schema issues require manual intervention
}

// EnvOverrideCheck reports SIGMON_* variables that override the config file.
type EnvOverrideCheck struct {
	// Environ defaults to os.Environ.
	Environ func() []string
}

func (c *EnvOverrideCheck) Name() string     { return "env_overrides" }
func (c *EnvOverrideCheck) Category() string { return "CONFIG" }

func (c *EnvOverrideCheck) Run(context.Context) CheckResult {
	environ := c.Environ
	if environ == nil {
		environ = os.Environ
	}

	var names []string
	for _, kv := range environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix+"_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	msg := "No SIGMON_* overrides"
	if len(names) > 0 {
		msg = "Environment overrides: " + strings.Join(names, ", ")
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}

func (c *EnvOverrideCheck) Fix() error {
	return nil
}

// NewConfigChecks creates all config-related checks.
func NewConfigChecks(configPath, initPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath, InitPath: initPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
		&EnvOverrideCheck{},
	}
}

// firstLine trims structured error text to its headline.
func firstLine(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "✗ ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
