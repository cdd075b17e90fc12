package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/config"
	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/logger"
)

func TestClientOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Endpoints = []string{"ws://a/ws", "ws://b/ws"}
	cfg.CycleRestart = 5 * time.Second
	cfg.DefaultTicker = "SBER"
	cfg.Params.Threshold = 2.5

	opts := clientOptions(cfg, logger.Noop())

	assert.Equal(t, cfg.Endpoints, opts.Endpoints)
	assert.Equal(t, 300*time.Millisecond, opts.ReconnectDelay)
	assert.Equal(t, 5*time.Second, opts.CycleRestart)
	assert.Equal(t, cfg.HistorySize, opts.HistorySize)
	assert.Equal(t, "SBER", opts.DefaultTicker)
	require.NotNil(t, opts.Params)
	assert.Equal(t, 2.5, opts.Params.Threshold)
	assert.Equal(t, cfg.DialTimeout, opts.Websocket.DialTimeout)
	assert.Equal(t, cfg.PingInterval, opts.Websocket.PingInterval)

	cfg.Endpoints[0] = "ws://changed/ws"
	assert.Equal(t, "ws://a/ws", opts.Endpoints[0], "endpoints are copied")
}

func TestClientOptionsZeroPingDisables(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PingInterval = 0

	opts := clientOptions(cfg, logger.Noop())
	assert.Less(t, opts.Websocket.PingInterval, time.Duration(0))
}

func TestWaitForMatch(t *testing.T) {
	ch := make(chan client.State, 3)
	ch <- client.State{Conn: conn.Connecting}
	ch <- client.State{Conn: conn.Open, Status: "connected"}

	st, err := waitFor(context.Background(), ch, "open", isOpen)
	require.NoError(t, err)
	assert.Equal(t, "connected", st.Status)
}

func TestWaitForTerminalError(t *testing.T) {
	ch := make(chan client.State, 2)
	ch <- client.State{Conn: conn.Error, RetryPending: true, Status: "a failed, trying b"}
	ch <- client.State{Conn: conn.Error, Status: "all endpoints failed"}

	_, err := waitFor(context.Background(), ch, "open", isOpen)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConn))
	assert.Contains(t, err.Error(), "all endpoints failed")
}

func TestWaitForClosedChannel(t *testing.T) {
	ch := make(chan client.State)
	close(ch)

	_, err := waitFor(context.Background(), ch, "open", isOpen)
	assert.True(t, errors.IsCode(err, errors.ErrConn))
}

func TestWaitForTimeout(t *testing.T) {
	ch := make(chan client.State, 1)
	ch <- client.State{Conn: conn.Connecting, Status: "connecting to ws://a (1/1)"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := waitFor(ctx, ch, "open", isOpen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Timed out waiting for open")
	assert.Contains(t, err.Error(), "connecting to ws://a")
}

func TestWaitConnectedRendersFailover(t *testing.T) {
	ch := make(chan client.State, 4)
	ch <- client.State{Conn: conn.Connecting, Endpoint: "ws://a/ws"}
	ch <- client.State{Conn: conn.Error, Endpoint: "ws://a/ws", RetryPending: true, Status: "ws://a/ws failed, trying ws://b/ws in 300ms"}
	ch <- client.State{Conn: conn.Connecting, Endpoint: "ws://b/ws"}
	ch <- client.State{Conn: conn.Open, Endpoint: "ws://b/ws"}

	var buf bytes.Buffer
	st, err := waitConnected(context.Background(), ch, &buf, "open", isOpen)
	require.NoError(t, err)
	assert.Equal(t, "ws://b/ws", st.Endpoint)
	assert.Contains(t, buf.String(), "trying ws://b/ws")
	assert.Contains(t, buf.String(), "Connected to ws://b/ws")
}

func TestWaitConnectedRendersFailure(t *testing.T) {
	ch := make(chan client.State, 2)
	ch <- client.State{Conn: conn.Connecting, Endpoint: "ws://a/ws"}
	ch <- client.State{Conn: conn.Error, Endpoint: "ws://a/ws", Status: "all endpoints failed (last: ws://a/ws)"}

	var buf bytes.Buffer
	_, err := waitConnected(context.Background(), ch, &buf, "open", isOpen)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Connection failed: all endpoints failed")
}
