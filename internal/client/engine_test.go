package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/protocol"
	"github.com/rileyhilliard/sigmon/internal/transport"
)

// fakeEngine answers list_instruments with a list and one snapshot.
func fakeEngine(t *testing.T) (string, <-chan string) {
	t.Helper()
	cmds := make(chan string, 8)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`))
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			cmds <- string(data)
			if strings.Contains(string(data), "list_instruments") {
				_ = c.WriteMessage(websocket.TextMessage,
					[]byte(`{"type":"instruments","items":[{"ticker":"SBER","name":"Sberbank"}]}`))
				_ = c.WriteMessage(websocket.TextMessage,
					[]byte(`{"type":"snapshot","ticker":"SBER","score":0.9,"recommendation":"SHORT"}`))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), cmds
}

func TestClientAgainstWebsocketEngine(t *testing.T) {
	deadURL := func() string {
		srv := httptest.NewServer(http.NotFoundHandler())
		u := "ws" + strings.TrimPrefix(srv.URL, "http")
		srv.Close()
		return u
	}()
	liveURL, cmds := fakeEngine(t)

	c, err := New(Options{
		Endpoints:      []string{deadURL, liveURL},
		ReconnectDelay: 10 * time.Millisecond,
		Websocket:      transport.WebsocketOptions{DialTimeout: time.Second, PingInterval: -1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	updates, stop := c.Subscribe()
	defer stop()
	c.Connect()

	deadline := time.After(5 * time.Second)
	var st State
	for st.Ticker != "SBER" {
		select {
		case st = <-updates:
		case <-deadline:
			t.Fatalf("never received a snapshot, last state: %+v", st)
		}
	}

	assert.Equal(t, conn.Open, st.Conn)
	assert.Equal(t, liveURL, st.Endpoint)
	assert.Equal(t, protocol.RecShort, st.Recommendation)
	assert.Equal(t, []float64{0.9}, st.History)
	require.Len(t, st.Instruments, 1)
	assert.Contains(t, <-cmds, "list_instruments")

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, protocol.RecOffline, c.Current().Recommendation)
}
