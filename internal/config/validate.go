package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/history"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but sigmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade sigmon or lower the 'version' field.")
	}

	if err := validateEndpoints(cfg.Endpoints); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'endpoints' list in your .sigmon.yaml.")
	}

	if err := validateTimings(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use Go duration strings like 300ms, 5s or 1m.")
	}

	if cfg.HistorySize < 1 || cfg.HistorySize > history.DefaultSize {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history_size must be between 1 and %d, got %d", history.DefaultSize, cfg.HistorySize),
			fmt.Sprintf("The default is %d.", history.DefaultSize))
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your .sigmon.yaml.")
	}

	if err := cfg.Params.Validate(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid value in the 'params' section", "Every parameter must be a plain number.")
	}

	return nil
}

func validateEndpoints(endpoints []string) error {
	if len(endpoints) == 0 {
		return fmt.Errorf("no endpoints configured - sigmon needs at least one ws:// or wss:// URL")
	}
	for _, ep := range endpoints {
		u, err := url.Parse(ep)
		if err != nil {
			return fmt.Errorf("endpoint '%s' isn't a valid URL: %v", ep, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("endpoint '%s' must use ws:// or wss://", ep)
		}
		if u.Host == "" {
			return fmt.Errorf("endpoint '%s' has no host", ep)
		}
	}
	return nil
}

func validateTimings(cfg *Config) error {
	checks := []struct {
		name  string
		value time.Duration
	}{
		{"reconnect_delay", cfg.ReconnectDelay},
		{"cycle_restart", cfg.CycleRestart},
		{"dial_timeout", cfg.DialTimeout},
		{"write_timeout", cfg.WriteTimeout},
		{"ping_interval", cfg.PingInterval},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("%s can't be negative", c.name)
		}
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
