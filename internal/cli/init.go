package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/errors"
)

// initCommand writes a default .sigmon.yaml in the current directory.
func initCommand(out io.Writer, force, interactive bool) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force && interactive {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		force = true
	}

	cfg := config.DefaultConfig()
	if len(endpointFlags) > 0 {
		cfg.Endpoints = append([]string{}, endpointFlags...)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.Write(configPath, cfg, force); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s\n", configPath)
	return nil
}
