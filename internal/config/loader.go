package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".sigmon.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/sigmon"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. SIGMON_ENDPOINTS.
	EnvPrefix = "SIGMON"
)

// Load reads config from the specified path. Environment overrides apply.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'sigmon init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .sigmon.yaml in current directory
// 3. .sigmon.yaml in parent directories (stops at git root or home)
// 4. ~/.config/sigmon/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for !isGitRoot(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads the config found for explicit, or defaults plus
// environment overrides when there is no file. It returns the path used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("endpoints", d.Endpoints)
	v.SetDefault("reconnect_delay", d.ReconnectDelay.String())
	v.SetDefault("cycle_restart", d.CycleRestart.String())
	v.SetDefault("dial_timeout", d.DialTimeout.String())
	v.SetDefault("write_timeout", d.WriteTimeout.String())
	v.SetDefault("ping_interval", d.PingInterval.String())
	v.SetDefault("history_size", d.HistorySize)
	v.SetDefault("default_ticker", d.DefaultTicker)
	v.SetDefault("output.color", d.Output.Color)

	for _, name := range protocol.ParamFields {
		val, _ := d.Params.Get(name)
		key := "params." + name
		if strings.HasPrefix(name, "w_") {
			key = "params.weights." + name
		}
		v.SetDefault(key, val)
	}
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	// slices decode into existing backing arrays; start empty so a shorter
	// list in the file is not padded with defaults
	cfg.Endpoints = nil

	if err := v.Unmarshal(cfg); err != nil {
		hint := "Check the YAML syntax"
		if path != "" {
			hint += " in " + path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Invalid config format", hint)
	}

	cfg.Endpoints = cleanEndpoints(cfg.Endpoints)
	cfg.DefaultTicker = strings.TrimSpace(cfg.DefaultTicker)
	return cfg, nil
}

// cleanEndpoints trims entries, splits comma lists and drops blanks and
// duplicates while keeping order.
func cleanEndpoints(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, ep := range strings.Split(item, ",") {
			ep = strings.TrimSpace(ep)
			if ep == "" || seen[ep] {
				continue
			}
			seen[ep] = true
			out = append(out, ep)
		}
	}
	return out
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}
