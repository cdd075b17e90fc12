// Package conn owns the engine session: endpoint failover, the reconnect
// timer and the IDLE/CONNECTING/OPEN/CLOSED/ERROR state machine.
//
// A Manager is confined to one event loop. Transport callbacks are posted
// onto that loop and every exported method must be called from it.
package conn

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/eventloop"
	"github.com/rileyhilliard/sigmon/internal/logger"
	"github.com/rileyhilliard/sigmon/internal/transport"
)

// DefaultReconnectDelay is the pause before trying the next endpoint.
const DefaultReconnectDelay = 300 * time.Millisecond

// Options configures a Manager.
type Options struct {
	Endpoints []string
	// ReconnectDelay is the pause before moving to the next endpoint.
	// Zero means DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// CycleRestart, when positive, restarts from the first endpoint after
	// the whole list has failed. Zero leaves the manager in ERROR.
	CycleRestart time.Duration

	Transport transport.Transport
	Scheduler eventloop.Scheduler
	Handler   Handler
	Logger    logger.Logger
}

// Manager drives one session at a time across an ordered endpoint list.
type Manager struct {
	endpoints    []string
	delay        time.Duration
	cycleRestart time.Duration
	transport    transport.Transport
	sched        eventloop.Scheduler
	handler      Handler
	log          logger.Logger

	state   State
	cursor  int
	session transport.Session
	// gen identifies the current session; callbacks carrying an older
	// value belong to a torn-down session and are dropped.
	gen      uint64
	retry    eventloop.Timer
	shutdown bool
	attempts int
}

// New validates opts and creates an idle manager.
func New(opts Options) (*Manager, error) {
	if len(opts.Endpoints) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No endpoints configured",
			"Add at least one ws:// or wss:// URL under 'endpoints'")
	}
	if opts.Transport == nil || opts.Scheduler == nil {
		return nil, errors.New(errors.ErrConfig, "Connection manager needs a transport and a scheduler", "")
	}

	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	return &Manager{
		endpoints:    append([]string(nil), opts.Endpoints...),
		delay:        delay,
		cycleRestart: opts.CycleRestart,
		transport:    opts.Transport,
		sched:        opts.Scheduler,
		handler:      opts.Handler,
		log:          logger.OrNoop(opts.Logger),
	}, nil
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

// Endpoint returns the endpoint the cursor points at.
func (m *Manager) Endpoint() string {
	return m.endpoints[m.cursor]
}

// Attempt returns the number of dials made so far.
func (m *Manager) Attempt() int {
	return m.attempts
}

// RetryPending reports whether an automatic reconnect is scheduled.
func (m *Manager) RetryPending() bool {
	return m.retry != nil
}

// Connect starts a fresh cycle from the first endpoint, tearing down any
// session or pending retry first.
func (m *Manager) Connect() {
	m.teardown()
	m.shutdown = false
	m.cursor = 0
	m.dial()
}

// Close ends the session, cancels any pending retry and stops automatic
// reconnection until the next Connect.
func (m *Manager) Close() {
	m.shutdown = true
	m.teardown()
	if m.state == Closed {
		return
	}
	m.transition(Status{State: Closed, Text: "disconnected"})
}

// Send transmits data when the session is open and reports whether it did.
// In any other state the data is dropped without error.
func (m *Manager) Send(data []byte) bool {
	if m.state != Open || m.session == nil {
		m.log.Debug("dropping %d byte frame: state %s", len(data), m.state)
		return false
	}
	if err := m.session.Send(data); err != nil {
		m.log.Warn("send on %s failed: %v", m.Endpoint(), err)
		return false
	}
	return true
}

func (m *Manager) dial() {
	m.gen++
	m.attempts++
	gen := m.gen
	ep := m.endpoints[m.cursor]

	m.transition(Status{
		State: Connecting,
		Text:  fmt.Sprintf("connecting to %s (%d/%d)", ep, m.cursor+1, len(m.endpoints)),
	})

	m.session = m.transport.Dial(ep, transport.Callbacks{
		OnOpen: func() {
			m.sched.Post(func() { m.handleOpen(gen) })
		},
		OnMessage: func(data []byte) {
			m.sched.Post(func() { m.handleMessage(gen, data) })
		},
		OnClose: func(reason string) {
			m.sched.Post(func() { m.handleClose(gen, reason) })
		},
		OnError: func(err error) {
			m.sched.Post(func() { m.handleError(gen, err) })
		},
	})
}

func (m *Manager) handleOpen(gen uint64) {
	if gen != m.gen || m.state != Connecting {
		return
	}
	m.transition(Status{State: Open, Text: "connected to " + m.Endpoint()})
	if m.handler.OnOpen != nil {
		m.handler.OnOpen()
	}
}

func (m *Manager) handleMessage(gen uint64, data []byte) {
	if gen != m.gen || m.state != Open {
		return
	}
	if m.handler.OnMessage != nil {
		m.handler.OnMessage(data)
	}
}

func (m *Manager) handleClose(gen uint64, reason string) {
	if gen != m.gen {
		return
	}
	m.release()

	text := "connection closed"
	if reason != "" {
		text += ": " + reason
	}
	m.transition(Status{State: Closed, Text: text})
}

func (m *Manager) handleError(gen uint64, err error) {
	if gen != m.gen {
		return
	}
	failed := m.Endpoint()
	m.release()
	m.log.Warn("endpoint %s failed: %v", failed, err)

	switch {
	case m.cursor+1 < len(m.endpoints):
		m.cursor++
		next := m.Endpoint()
		m.retry = m.sched.AfterFunc(m.delay, func() {
			m.retry = nil
			if !m.shutdown {
				m.dial()
			}
		})
		m.transition(Status{
			State: Error,
			Text:  fmt.Sprintf("%s failed, trying %s in %s", failed, next, m.delay),
			Err:   err,
		})

	case m.cycleRestart > 0:
		m.retry = m.sched.AfterFunc(m.cycleRestart, func() {
			m.retry = nil
			if !m.shutdown {
				m.cursor = 0
				m.dial()
			}
		})
		m.transition(Status{
			State: Error,
			Text:  fmt.Sprintf("all endpoints failed, retrying in %s", m.cycleRestart),
			Err:   err,
		})

	default:
		m.transition(Status{
			State: Error,
			Text:  fmt.Sprintf("all endpoints failed (last: %s)", failed),
			Err:   err,
		})
	}
}

// release drops the current session after it ended on its own.
func (m *Manager) release() {
	if m.session != nil {
		_ = m.session.Close()
		m.session = nil
	}
	m.gen++
}

// teardown cancels the retry timer and closes any live session.
func (m *Manager) teardown() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			m.log.Debug("closing session: %v", err)
		}
		m.session = nil
	}
	m.gen++
}

func (m *Manager) transition(st Status) {
	m.state = st.State
	st.Endpoint = m.Endpoint()
	st.Attempt = m.attempts
	st.RetryPending = m.retry != nil

	m.log.Debug("state %s: %s", st.State, st.Text)
	if m.handler.OnStatus != nil {
		m.handler.OnStatus(st)
	}
}
