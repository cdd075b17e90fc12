package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// paramsWait bounds how long params waits for the engine to report its set
// once connected.
var paramsWait = 3 * time.Second

// paramsCommand fetches the engine's params, stages edits and applies them.
func paramsCommand(out io.Writer, sets []string, noForm bool, timeout time.Duration) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	opts := clientOptions(cfg, newLogger(os.Stderr))
	opts.DefaultTicker = ""
	sess, err := startSession(context.Background(), opts)
	if err != nil {
		return err
	}
	defer sess.stop()

	updates, unsubscribe := sess.client.Subscribe()
	defer unsubscribe()

	ctx, cancel := withTimeout(timeout)
	st, err := waitConnected(ctx, updates, os.Stderr, "connection", isOpen)
	cancel()
	if err != nil {
		return err
	}

	wait := paramsWait
	if timeout > 0 && timeout < wait {
		wait = timeout
	}
	st, reported, err := engineParams(updates, st, wait)
	if err != nil {
		return err
	}

	current := st.Params
	if !reported {
		current = st.Staged
		fmt.Fprintln(out, "Note: the engine has not reported its params; starting from the configured values.")
	}
	staged := current
	switch {
	case len(sets) > 0:
		if err := applyAssignments(&staged, sets); err != nil {
			return err
		}
	case noForm:
		writeParams(out, current)
		return nil
	default:
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New(errors.ErrParams,
				"Interactive editing needs a terminal",
				"Use --set field=value, or --no-form to print the current params.")
		}
		if err := runParamsForm(&staged); err != nil {
			return err
		}
	}

	if staged == current {
		fmt.Fprintln(out, "No changes.")
		return nil
	}

	if err := sess.client.StageParams(staged); err != nil {
		return err
	}
	sess.client.ApplyParams()

	ctx, cancel = withTimeout(timeout)
	defer cancel()
	if _, err := waitFor(ctx, updates, "params confirmation", func(s client.State) bool {
		return s.Params == staged
	}); err != nil {
		if ctx.Err() == nil {
			return err
		}
		fmt.Fprintln(out, "Params sent; the engine has not confirmed them yet.")
		writeParams(out, staged)
		return nil
	}

	fmt.Fprintln(out, "Params applied.")
	writeParams(out, staged)
	return nil
}

// engineParams waits up to d for the first params event. It reports false
// when none arrived in time.
func engineParams(updates <-chan client.State, st client.State, d time.Duration) (client.State, bool, error) {
	if st.ParamsReceived > 0 {
		return st, true, nil
	}

	ctx, cancel := withTimeout(d)
	defer cancel()
	got, err := waitFor(ctx, updates, "the engine's params", func(s client.State) bool {
		return s.ParamsReceived > 0
	})
	switch {
	case err == nil:
		return got, true, nil
	case ctx.Err() == nil:
		return got, false, err
	}
	return st, false, nil
}

// parseAssignment splits "field=value".
func parseAssignment(s string) (string, string, error) {
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", errors.New(errors.ErrParams,
			fmt.Sprintf("'%s' is not a field=value pair", s),
			"Example: --set threshold=1.5")
	}
	return field, value, nil
}

func applyAssignments(p *protocol.StrategyParams, sets []string) error {
	for _, s := range sets {
		field, raw, err := parseAssignment(s)
		if err != nil {
			return err
		}
		v, err := client.ParseParamValue(field, raw)
		if err != nil {
			return err
		}
		if err := p.Set(field, v); err != nil {
			return err
		}
	}
	return nil
}

func runParamsForm(p *protocol.StrategyParams) error {
	values := make([]string, len(protocol.ParamFields))
	fields := make([]huh.Field, 0, len(protocol.ParamFields))

	for i, name := range protocol.ParamFields {
		v, _ := p.Get(name)
		values[i] = strconv.FormatFloat(v, 'g', -1, 64)
		fields = append(fields, huh.NewInput().
			Title(name).
			Value(&values[i]).
			Validate(func(s string) error {
				if _, err := client.ParseParamValue(name, s); err != nil {
					return fmt.Errorf("%s must be a number", name)
				}
				return nil
			}))
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrParams,
			"Failed to get user input",
			"Use --set field=value instead")
	}

	for i, name := range protocol.ParamFields {
		v, err := client.ParseParamValue(name, values[i])
		if err != nil {
			return err
		}
		if err := p.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func writeParams(out io.Writer, p protocol.StrategyParams) {
	for _, name := range protocol.ParamFields {
		v, _ := p.Get(name)
		fmt.Fprintf(out, "  %-12s %s\n", name, strconv.FormatFloat(v, 'g', -1, 64))
	}
}
