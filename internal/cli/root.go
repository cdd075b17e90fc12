package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/errors"
)

// Global flags
var (
	configFlag    string
	debugFlag     bool
	noColorFlag   bool
	endpointFlags []string
)

var rootCmd = &cobra.Command{
	Use:   "sigmon",
	Short: "Live monitor for a trading-signal engine",
	Long: `sigmon connects to a trading-signal engine over websocket and shows
its live snapshot: price, score, indicator LEDs and the current
recommendation. Endpoints are tried in order with automatic failover.

Examples:
  sigmon watch
  sigmon tail --changes
  sigmon --endpoint ws://backup:8765/ws switch SBER`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "config file (default: nearest .sigmon.yaml)")
	pf.BoolVar(&debugFlag, "debug", false, "enable debug logging")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	pf.StringArrayVar(&endpointFlags, "endpoint", nil, "engine endpoint, repeatable (overrides config)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if isUnknownCommandError(err) {
			if name := extractUnknownCommand(err); name != "" {
				err = errors.New(errors.ErrCmd,
					fmt.Sprintf("Unknown command '%s'", name),
					"Run 'sigmon --help' to see available commands.")
			}
		}
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
		os.Exit(1)
	}
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the quoted name out of cobra's error text.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig resolves the config file, applies --endpoint overrides and
// sets the color profile.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, "", err
	}

	if len(endpointFlags) > 0 {
		cfg.Endpoints = append([]string{}, endpointFlags...)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	lipgloss.SetColorProfile(colorProfile(cfg.Output.Color, noColorFlag, term.IsTerminal(int(os.Stdout.Fd()))))
	return cfg, path, nil
}

// colorProfile picks the lipgloss profile for a color mode.
func colorProfile(mode string, noColor, tty bool) termenv.Profile {
	switch {
	case noColor || mode == "never":
		return termenv.Ascii
	case mode == "always":
		return termenv.TrueColor
	case !tty:
		return termenv.Ascii
	default:
		return termenv.EnvColorProfile()
	}
}
