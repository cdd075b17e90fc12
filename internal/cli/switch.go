package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/errors"
)

// oneShot connects, waits for the instrument list and hands the session to fn.
func oneShot(timeout time.Duration, fn func(ctx context.Context, sess *session, updates <-chan client.State, st client.State) error) error {
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
	defer cancel()

	st, err := waitConnected(ctx, updates, os.Stderr, "the instrument list", func(s client.State) bool {
		return isOpen(s) && len(s.Instruments) > 0
	})
	if err != nil {
		return err
	}
	return fn(ctx, sess, updates, st)
}

func requireInstrument(st client.State, ticker string) error {
	if _, ok := st.Instrument(ticker); ok {
		return nil
	}
	offered := make([]string, 0, len(st.Instruments))
	for _, in := range st.Instruments {
		offered = append(offered, in.Ticker)
	}
	return errors.New(errors.ErrCmd,
		fmt.Sprintf("The engine does not offer '%s'", ticker),
		"Available: "+strings.Join(offered, ", "))
}

// switchCommand moves the engine to ticker and waits for its first snapshot.
func switchCommand(out io.Writer, ticker string, save bool, timeout time.Duration) error {
	ticker = strings.TrimSpace(ticker)

	err := oneShot(timeout, func(ctx context.Context, sess *session, updates <-chan client.State, st client.State) error {
		if err := requireInstrument(st, ticker); err != nil {
			return err
		}
		seen := sess.client.Current().Snapshots
		if err := sess.client.SwitchTicker(ticker); err != nil {
			return err
		}

		st, err := waitFor(ctx, updates, "a "+ticker+" snapshot", func(s client.State) bool {
			return s.Snapshots > seen && s.Ticker == ticker
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Switched to %s: price %s, recommendation %s\n", st.Ticker, st.Price, st.Recommendation)
		return nil
	})
	if err != nil || !save {
		return err
	}
	return saveDefaultTicker(out, ticker)
}

func saveDefaultTicker(out io.Writer, ticker string) error {
	path, err := config.Find(configFlag)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file to save the default ticker in",
			"Run 'sigmon init' first.")
	}
	if err := config.SetDefaultTicker(path, ticker); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s as default_ticker in %s\n", ticker, path)
	return nil
}

// archiveCommand asks the engine to replay ticker's archive and waits for
// the backfill to finish.
func archiveCommand(out io.Writer, ticker string, timeout time.Duration) error {
	ticker = strings.TrimSpace(ticker)

	return oneShot(timeout, func(ctx context.Context, sess *session, updates <-chan client.State, st client.State) error {
		if err := requireInstrument(st, ticker); err != nil {
			return err
		}
		if in, _ := st.Instrument(ticker); !in.HasArchive {
			fmt.Fprintf(out, "Note: the engine lists no archive for %s, asking anyway.\n", ticker)
		}
		if err := sess.client.LoadArchive(ticker); err != nil {
			return err
		}

		st, err := waitFor(ctx, updates, "the backfill", func(s client.State) bool {
			return s.BackfillRows > 0 || strings.HasPrefix(s.Status, "backfill done")
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Archive for %s loaded: %d rows\n", ticker, st.BackfillRows)
		return nil
	})
}
