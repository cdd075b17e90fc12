package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/errors"
	eltesting "github.com/rileyhilliard/sigmon/internal/eventloop/testing"
	"github.com/rileyhilliard/sigmon/internal/logger"
	trtesting "github.com/rileyhilliard/sigmon/internal/transport/testing"
)

type harness struct {
	m        *Manager
	sched    *eltesting.FakeScheduler
	tr       *trtesting.FakeTransport
	statuses []Status
	opens    int
	messages []string
}

func newHarness(t *testing.T, endpoints []string, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		sched: eltesting.NewFakeScheduler(),
		tr:    trtesting.NewFakeTransport(),
	}
	opts := Options{
		Endpoints: endpoints,
		Transport: h.tr,
		Scheduler: h.sched,
		Logger:    logger.NewBufferLogger(),
		Handler: Handler{
			OnStatus:  func(s Status) { h.statuses = append(h.statuses, s) },
			OnOpen:    func() { h.opens++ },
			OnMessage: func(b []byte) { h.messages = append(h.messages, string(b)) },
		},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	m, err := New(opts)
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) states() []State {
	out := make([]State, len(h.statuses))
	for i, s := range h.statuses {
		out[i] = s.State
	}
	return out
}

func (h *harness) last() Status {
	return h.statuses[len(h.statuses)-1]
}

func TestNewRequiresEndpoints(t *testing.T) {
	_, err := New(Options{
		Transport: trtesting.NewFakeTransport(),
		Scheduler: eltesting.NewFakeScheduler(),
	})
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "CONNECTING", Connecting.String())
	assert.Equal(t, "OPEN", Open.String())
	assert.Equal(t, "CLOSED", Closed.String())
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}

func TestConnectOpenAndReceive(t *testing.T) {
	h := newHarness(t, []string{"ws://a"})
	assert.Equal(t, Idle, h.m.State())

	h.m.Connect()
	assert.Equal(t, Connecting, h.m.State())
	require.Equal(t, []string{"ws://a"}, h.tr.Dials())

	s := h.tr.Last()
	s.Open()
	h.sched.Drain()
	assert.Equal(t, Open, h.m.State())
	assert.Equal(t, 1, h.opens)

	s.Message(`{"type":"hello"}`)
	h.sched.Drain()
	assert.Equal(t, []string{`{"type":"hello"}`}, h.messages)
	assert.Equal(t, []State{Connecting, Open}, h.states())
	assert.Equal(t, "ws://a", h.last().Endpoint)
}

func TestFailoverToNextEndpointAfterDelay(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()

	h.tr.Last().Fail(nil)
	h.sched.Drain()
	assert.Equal(t, Error, h.m.State())
	assert.True(t, h.last().RetryPending)
	assert.Error(t, h.last().Err)
	assert.Len(t, h.tr.Dials(), 1, "no redial before the delay")

	h.sched.Advance(299 * time.Millisecond)
	assert.Len(t, h.tr.Dials(), 1)

	h.sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"ws://a", "ws://b"}, h.tr.Dials())
	assert.Equal(t, Connecting, h.m.State())
	assert.Equal(t, "ws://b", h.m.Endpoint())
}

func TestExhaustedListStaysInError(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()

	h.tr.Last().Fail(nil)
	h.sched.Drain()
	h.sched.Advance(DefaultReconnectDelay)
	h.tr.Last().Fail(nil)
	h.sched.Drain()

	assert.Equal(t, Error, h.m.State())
	assert.False(t, h.m.RetryPending())
	assert.False(t, h.last().RetryPending)

	h.sched.Advance(time.Hour)
	assert.Equal(t, []string{"ws://a", "ws://b"}, h.tr.Dials(), "no automatic attempts after exhaustion")
	assert.Equal(t, []State{Connecting, Error, Connecting, Error}, h.states())
}

func TestFreshConnectResetsCursor(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()
	h.tr.Last().Fail(nil)
	h.sched.Drain()
	h.sched.Advance(DefaultReconnectDelay)
	h.tr.Last().Fail(nil)
	h.sched.Drain()

	h.m.Connect()
	assert.Equal(t, "ws://a", h.tr.Last().Endpoint)
	assert.Equal(t, 3, h.m.Attempt())
}

func TestErrorWhileOpenFailsOver(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()
	a := h.tr.Last()
	a.Open()
	h.sched.Drain()

	a.Fail(nil)
	h.sched.Drain()
	assert.Equal(t, Error, h.m.State())
	assert.True(t, a.Closed())

	h.sched.Advance(DefaultReconnectDelay)
	assert.Equal(t, "ws://b", h.tr.Last().Endpoint)
}

func TestRemoteCloseDoesNotReconnect(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()
	h.tr.Last().Open()
	h.sched.Drain()

	h.tr.Last().RemoteClose("maintenance")
	h.sched.Drain()
	assert.Equal(t, Closed, h.m.State())
	assert.Contains(t, h.last().Text, "maintenance")

	h.sched.Advance(time.Minute)
	assert.Len(t, h.tr.Dials(), 1)
}

func TestCloseCancelsPendingRetry(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"})
	h.m.Connect()
	h.tr.Last().Fail(nil)
	h.sched.Drain()
	require.True(t, h.m.RetryPending())

	h.m.Close()
	assert.Equal(t, Closed, h.m.State())
	assert.False(t, h.m.RetryPending())

	h.sched.Advance(time.Second)
	assert.Len(t, h.tr.Dials(), 1, "stale reconnect must not fire after Close")
	assert.Equal(t, Closed, h.m.State())
}

func TestCloseTearsDownSessionAndIgnoresLateCallbacks(t *testing.T) {
	h := newHarness(t, []string{"ws://a"})
	h.m.Connect()
	s := h.tr.Last()
	s.Open()
	h.sched.Drain()

	h.m.Close()
	assert.True(t, s.Closed())
	assert.Equal(t, Closed, h.m.State())

	n := len(h.statuses)
	s.Message(`{"type":"hello"}`)
	s.Fail(nil)
	h.sched.Drain()

	assert.Empty(t, h.messages)
	assert.Len(t, h.statuses, n)
	assert.Equal(t, Closed, h.m.State())
}

func TestConnectWhileOpenReplacesSession(t *testing.T) {
	h := newHarness(t, []string{"ws://a"})
	h.m.Connect()
	first := h.tr.Last()
	first.Open()
	h.sched.Drain()

	h.m.Connect()
	assert.True(t, first.Closed())
	assert.Len(t, h.tr.Dials(), 2)

	// the old session's open must not flip the new attempt to OPEN
	first.Open()
	h.sched.Drain()
	assert.Equal(t, Connecting, h.m.State())
	assert.Equal(t, 1, h.opens)
}

func TestSendOnlyWhenOpen(t *testing.T) {
	h := newHarness(t, []string{"ws://a"})

	assert.False(t, h.m.Send([]byte("idle")))

	h.m.Connect()
	s := h.tr.Last()
	assert.False(t, h.m.Send([]byte("connecting")))

	s.Open()
	h.sched.Drain()
	assert.True(t, h.m.Send([]byte("open")))

	h.m.Close()
	assert.False(t, h.m.Send([]byte("closed")))

	assert.Equal(t, [][]byte{[]byte("open")}, s.Sent())
}

func TestSendFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, []string{"ws://a"})
	h.m.Connect()
	s := h.tr.Last()
	s.Open()
	h.sched.Drain()

	s.SendErr = errors.New(errors.ErrConn, "broken pipe", "")
	assert.False(t, h.m.Send([]byte("x")))
	assert.Equal(t, Open, h.m.State())
}

func TestCycleRestartPolicy(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"}, func(o *Options) {
		o.CycleRestart = 5 * time.Second
	})
	h.m.Connect()
	h.tr.Last().Fail(nil)
	h.sched.Drain()
	h.sched.Advance(DefaultReconnectDelay)
	h.tr.Last().Fail(nil)
	h.sched.Drain()

	assert.Equal(t, Error, h.m.State())
	assert.True(t, h.m.RetryPending())

	h.sched.Advance(5*time.Second - time.Millisecond)
	assert.Len(t, h.tr.Dials(), 2)

	h.sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"ws://a", "ws://b", "ws://a"}, h.tr.Dials())
}

func TestCustomReconnectDelay(t *testing.T) {
	h := newHarness(t, []string{"ws://a", "ws://b"}, func(o *Options) {
		o.ReconnectDelay = time.Second
	})
	h.m.Connect()
	h.tr.Last().Fail(nil)
	h.sched.Drain()

	h.sched.Advance(DefaultReconnectDelay)
	assert.Len(t, h.tr.Dials(), 1)
	h.sched.Advance(time.Second)
	assert.Len(t, h.tr.Dials(), 2)
}
