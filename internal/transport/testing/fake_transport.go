// Package testing provides test doubles for the transport package.
package testing

import (
	"sync"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/transport"
)

// FakeTransport records every Dial and hands back scriptable sessions.
// Tests drive a session's lifecycle with Open, Message, RemoteClose and Fail.
type FakeTransport struct {
	mu       sync.Mutex
	sessions []*FakeSession
}

// NewFakeTransport creates an empty fake transport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Dial records the attempt and returns a pending session.
func (f *FakeTransport) Dial(endpoint string, cb transport.Callbacks) transport.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := &FakeSession{Endpoint: endpoint, cb: cb}
	f.sessions = append(f.sessions, s)
	return s
}

// Dials returns the endpoints dialed so far, in order.
func (f *FakeTransport) Dials() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.sessions))
	for i, s := range f.sessions {
		out[i] = s.Endpoint
	}
	return out
}

// Session returns the i-th dialed session, or nil.
func (f *FakeTransport) Session(i int) *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= len(f.sessions) {
		return nil
	}
	return f.sessions[i]
}

// Last returns the most recent session, or nil.
func (f *FakeTransport) Last() *FakeSession {
	f.mu.Lock()
	n := len(f.sessions)
	f.mu.Unlock()
	return f.Session(n - 1)
}

// FakeSession is a session whose lifecycle the test controls.
type FakeSession struct {
	Endpoint string
	// SendErr, when set, is returned by Send instead of recording.
	SendErr error

	mu         sync.Mutex
	cb         transport.Callbacks
	opened     bool
	closed     bool
	closeCalls int
	sent       [][]byte
}

// Send records data once the session has been opened.
func (s *FakeSession) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SendErr != nil {
		return s.SendErr
	}
	if !s.opened || s.closed {
		return errors.New(errors.ErrConn, "Session is not open", "")
	}
	s.sent = append(s.sent, append([]byte(nil), data...))
	return nil
}

// Close marks the session closed.
func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closeCalls++
	return nil
}

// Sent returns copies of the frames written so far.
func (s *FakeSession) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// Closed reports whether Close was called.
func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseCalls returns how many times Close was called.
func (s *FakeSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Open fires OnOpen.
func (s *FakeSession) Open() {
	s.mu.Lock()
	s.opened = true
	cb := s.cb.OnOpen
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Message fires OnMessage with raw.
func (s *FakeSession) Message(raw string) {
	if s.cb.OnMessage != nil {
		s.cb.OnMessage([]byte(raw))
	}
}

// RemoteClose fires OnClose.
func (s *FakeSession) RemoteClose(reason string) {
	s.mu.Lock()
	s.opened = false
	s.mu.Unlock()

	if s.cb.OnClose != nil {
		s.cb.OnClose(reason)
	}
}

// Fail fires OnError. A nil err is replaced with a generic CONN error.
func (s *FakeSession) Fail(err error) {
	if err == nil {
		err = errors.New(errors.ErrConn, "connection refused", "")
	}
	s.mu.Lock()
	s.opened = false
	s.mu.Unlock()

	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}

var _ transport.Transport = (*FakeTransport)(nil)
