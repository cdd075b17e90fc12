package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/doctor"
	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/transport"
	"github.com/rileyhilliard/sigmon/internal/ui"
)

var (
	doctorJSON bool
	doctorFix  bool
)

// doctorCmd diagnoses config and endpoint problems
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config and engine connectivity",
	Long: `Check the config file and probe every configured endpoint: each one is
dialed, asked for its instrument list, and must answer with frames sigmon
can decode.

Examples:
  sigmon doctor
  sigmon doctor --json
  sigmon doctor --fix`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.OutOrStdout(), doctorJSON, doctorFix)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand implements the doctor command logic.
func doctorCommand(out io.Writer, jsonOut, fix bool) error {
	checks := doctor.NewConfigChecks(configFlag, filepath.Join(".", config.ConfigFileName))

	// Endpoint probes need a config that loads; the schema check reports
	// when it does not.
	if cfg, _, err := config.LoadOrDefault(configFlag); err == nil {
		if len(endpointFlags) > 0 {
			cfg.Endpoints = append([]string{}, endpointFlags...)
		}
		lipgloss.SetColorProfile(colorProfile(cfg.Output.Color, noColorFlag, isTerminal(os.Stdout)))
		tr := transport.NewWebsocket(transport.WebsocketOptions{
			DialTimeout:  cfg.DialTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PingInterval: -1,
			Logger:       newLogger(io.Discard),
		})
		checks = append(checks, doctor.NewEndpointChecks(cfg.Endpoints, tr, cfg.DialTimeout+doctor.DefaultProbeTimeout)...)
	}

	ctx := context.Background()
	results := doctor.RunAllParallel(ctx, checks)

	if fix {
		results = attemptFixes(ctx, checks, results)
	}

	var err error
	if jsonOut {
		err = outputDoctorJSON(out, checks, results)
	} else {
		outputDoctorText(out, checks, results, fix)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return errors.New(errors.ErrConfig, "Doctor found problems", "See the report above.")
	}
	return nil
}

// attemptFixes tries to fix issues where possible.
func attemptFixes(ctx context.Context, checks []doctor.Check, results []doctor.CheckResult) []doctor.CheckResult {
	for i, result := range results {
		if result.Fixable && result.Status != doctor.StatusPass {
			if err := checks[i].Fix(); err == nil {
				results[i] = checks[i].Run(ctx)
			}
		}
	}
	return results
}

func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	var groups []CategoryOutput
	index := map[string]int{}

	for i, check := range checks {
		cat := check.Category()
		idx, ok := index[cat]
		if !ok {
			idx = len(groups)
			index[cat] = idx
			groups = append(groups, CategoryOutput{Name: cat})
		}
		groups[idx].Results = append(groups[idx].Results, results[i])
	}
	return groups
}

func summarize(results []doctor.CheckResult) SummaryOutput {
	counts := doctor.CountByStatus(results)
	return SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}
}

// outputDoctorJSON outputs results in JSON format.
func outputDoctorJSON(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	report := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary:    summarize(results),
	}

	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodec, "Could not encode report", "")
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// outputDoctorText outputs results in human-readable format.
func outputDoctorText(out io.Writer, checks []doctor.Check, results []doctor.CheckResult, fixed bool) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("sigmon Diagnostic Report"))
	fmt.Fprintln(out)

	for _, group := range groupResults(checks, results) {
		fmt.Fprintln(out, headerStyle.Render(group.Name))
		for _, r := range group.Results {
			symbol, style := ui.SymbolComplete, successStyle
			switch r.Status {
			case doctor.StatusWarn:
				style = warnStyle
			case doctor.StatusFail:
				symbol, style = ui.SymbolFail, errorStyle
			}
			fmt.Fprintf(out, "  %s %s\n", style.Render(symbol), r.Message)
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				for _, line := range strings.Split(r.Suggestion, "\n") {
					fmt.Fprintf(out, "    %s\n", mutedStyle.Render(line))
				}
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	fmt.Fprintln(out)

	sum := summarize(results)
	if sum.AllClear {
		fmt.Fprintf(out, "%s Everything looks good\n", successStyle.Render(ui.SymbolComplete))
	} else {
		total := sum.Fail + sum.Warn
		fmt.Fprintf(out, "%s %d issue%s found\n", errorStyle.Render(ui.SymbolFail), total, pluralSuffix(total))
		if sum.Fixable > 0 && !fixed {
			fmt.Fprintf(out, "\n  Run with %s to attempt automatic fixes where possible.\n", mutedStyle.Render("--fix"))
		}
	}
	fmt.Fprintln(out)
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
