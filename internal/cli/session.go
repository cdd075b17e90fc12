package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/logger"
	"github.com/rileyhilliard/sigmon/internal/transport"
	"github.com/rileyhilliard/sigmon/internal/ui"
)

// clientOptions maps the config onto client options. A zero ping interval
// in the config disables keepalive pings.
func clientOptions(cfg *config.Config, log logger.Logger) client.Options {
	ping := cfg.PingInterval
	if ping == 0 {
		ping = -1
	}
	params := cfg.Params

	return client.Options{
		Endpoints:      append([]string{}, cfg.Endpoints...),
		ReconnectDelay: cfg.ReconnectDelay,
		CycleRestart:   cfg.CycleRestart,
		HistorySize:    cfg.HistorySize,
		DefaultTicker:  cfg.DefaultTicker,
		Params:         &params,
		Websocket: transport.WebsocketOptions{
			DialTimeout:  cfg.DialTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PingInterval: ping,
		},
		Logger: log,
	}
}

func newLogger(w io.Writer) logger.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logger.NewZapLogger("sigmon", w, debugFlag || os.Getenv(logger.DebugEnv) != "")
}

// session is a running client with its event loop.
type session struct {
	client *client.Client
	cancel context.CancelFunc
	done   chan error
}

// startSession builds a client, starts its loop and begins connecting.
func startSession(ctx context.Context, opts client.Options) (*session, error) {
	c, err := client.New(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &session{client: c, cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- c.Run(ctx) }()

	c.Connect()
	return s, nil
}

// stop disconnects and waits for the loop to exit.
func (s *session) stop() {
	s.client.Close()
	s.cancel()
	<-s.done
}

func isOpen(st client.State) bool {
	return st.Conn == conn.Open
}

// waitFor blocks until match accepts a published state. It gives up when ctx
// ends, when the subscription closes, or when every endpoint has failed.
func waitFor(ctx context.Context, updates <-chan client.State, what string, match func(client.State) bool) (client.State, error) {
	var last client.State
	for {
		select {
		case <-ctx.Done():
			return last, errors.WrapWithCode(ctx.Err(), errors.ErrConn,
				fmt.Sprintf("Timed out waiting for %s", what),
				lastStatusHint(last))
		case st, ok := <-updates:
			if !ok {
				return last, errors.New(errors.ErrConn, "Client stopped", "")
			}
			last = st
			if match(st) {
				return st, nil
			}
			if st.Conn == conn.Error && !st.RetryPending {
				return st, errors.New(errors.ErrConn, st.Status,
					"Check that the engine is running and the endpoints in .sigmon.yaml are right.")
			}
		}
	}
}

// waitConnected waits for match while rendering endpoint failover progress
// to w.
func waitConnected(ctx context.Context, updates <-chan client.State, w io.Writer, what string, match func(client.State) bool) (client.State, error) {
	display := ui.NewConnectionDisplay(w, isTerminal(w))
	st, err := waitFor(ctx, updates, what, func(s client.State) bool {
		display.Observe(s.Conn, s.Endpoint, s.Status)
		return match(s)
	})
	if err != nil {
		display.Fail(lastFailure(st))
		return st, err
	}
	display.Success(st.Endpoint)
	return st, nil
}

func lastFailure(st client.State) string {
	if st.Conn == conn.Error {
		return st.Status
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func lastStatusHint(st client.State) string {
	if st.Status == "" {
		return ""
	}
	return "Last status: " + st.Status
}

// withTimeout returns a context bounded by d, or just cancellable when d is zero.
func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
