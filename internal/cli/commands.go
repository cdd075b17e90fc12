package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Command-specific flags
var (
	tailChangesFlag  bool
	tailCountFlag    int
	switchSaveFlag   bool
	cmdTimeoutFlag   time.Duration
	paramsSetFlags   []string
	paramsNoFormFlag bool
	initForceFlag    bool
)

// watchCmd starts the interactive dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for the engine's signal",
	Long: `Connect to the engine and show its live snapshot in an interactive
dashboard. When stdout is not a terminal, watch behaves like tail.

Keys:
  j/k      move through instruments
  enter    switch to the selected ticker
  a        load the selected ticker's archive
  r        reconnect from the first endpoint
  p / x    apply or discard staged params
  ?        toggle help
  q        quit

Examples:
  sigmon watch
  sigmon watch --endpoint ws://10.0.0.5:8765/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand()
	},
}

// tailCmd prints published states as JSON lines
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream state updates as JSON lines",
	Long: `Connect to the engine and print every published state as one JSON
object per line. Pipe it into jq or a log shipper.

Examples:
  sigmon tail
  sigmon tail --changes
  sigmon tail --count 10 | jq .recommendation`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tailCommand(cmd.OutOrStdout(), tailChangesFlag, tailCountFlag)
	},
}

// paramsCmd edits and applies strategy parameters
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Edit and apply strategy parameters",
	Long: `Fetch the engine's current strategy parameters, edit them, and apply
the result. Without --set an interactive form is shown.

Examples:
  sigmon params
  sigmon params --set threshold=1.5 --set w_macd=0.8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return paramsCommand(cmd.OutOrStdout(), paramsSetFlags, paramsNoFormFlag, cmdTimeoutFlag)
	},
}

// switchCmd changes the streamed instrument
var switchCmd = &cobra.Command{
	Use:   "switch <ticker>",
	Short: "Switch the engine to another instrument",
	Long: `Ask the engine to stream another instrument and wait for its first
snapshot. With --save the ticker becomes default_ticker in the config file.

Examples:
  sigmon switch SBER
  sigmon switch GAZP --save`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchCommand(cmd.OutOrStdout(), args[0], switchSaveFlag, cmdTimeoutFlag)
	},
}

// archiveCmd replays stored history
var archiveCmd = &cobra.Command{
	Use:   "archive <ticker>",
	Short: "Load an instrument's stored history",
	Long: `Ask the engine to replay the stored archive for a ticker and wait for
the backfill to finish.

Examples:
  sigmon archive SBER`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return archiveCommand(cmd.OutOrStdout(), args[0], cmdTimeoutFlag)
	},
}

// initCmd creates a new .sigmon.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .sigmon.yaml configuration",
	Long: `Create a .sigmon.yaml file in the current directory with default
settings. Endpoints given with --endpoint are written into it.

Examples:
  sigmon init
  sigmon init --endpoint ws://primary:8765/ws --endpoint ws://backup:8765/ws
  sigmon init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.OutOrStdout(), initForceFlag, term.IsTerminal(int(os.Stdin.Fd())))
	},
}

func init() {
	tailCmd.Flags().BoolVar(&tailChangesFlag, "changes", false, "only print when status, ticker, LEDs or recommendation change")
	tailCmd.Flags().IntVar(&tailCountFlag, "count", 0, "exit after this many lines (0 = run until interrupted)")

	for _, c := range []*cobra.Command{paramsCmd, switchCmd, archiveCmd} {
		c.Flags().DurationVar(&cmdTimeoutFlag, "timeout", 15*time.Second, "how long to wait for the engine")
	}
	paramsCmd.Flags().StringArrayVar(&paramsSetFlags, "set", nil, "field=value to stage, repeatable")
	paramsCmd.Flags().BoolVar(&paramsNoFormFlag, "no-form", false, "print current params and exit without editing")

	switchCmd.Flags().BoolVar(&switchSaveFlag, "save", false, "record the ticker as default_ticker in the config file")

	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(initCmd)
}
