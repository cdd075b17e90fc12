// Package transport provides the duplex message stream the connection
// manager drives. Sessions report lifecycle asynchronously through
// Callbacks; the manager decides what each report means.
package transport

// Callbacks receive a session's lifecycle. They may be invoked from any
// goroutine. A session reports at most one OnOpen, then any number of
// OnMessage calls, then exactly one of OnClose or OnError. Nothing is
// reported after the session is closed locally.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(data []byte)
	// OnClose reports a graceful close by the remote side.
	OnClose func(reason string)
	// OnError reports a failed dial or a broken session.
	OnError func(err error)
}

// Session is one live or pending connection attempt.
type Session interface {
	// Send writes one text frame. It fails if the session is not open.
	Send(data []byte) error
	// Close tears the session down. It is safe to call more than once.
	Close() error
}

// Transport starts sessions.
type Transport interface {
	// Dial begins connecting to endpoint and returns immediately.
	Dial(endpoint string, cb Callbacks) Session
}

func (cb Callbacks) open() {
	if cb.OnOpen != nil {
		cb.OnOpen()
	}
}

func (cb Callbacks) message(data []byte) {
	if cb.OnMessage != nil {
		cb.OnMessage(data)
	}
}

func (cb Callbacks) closed(reason string) {
	if cb.OnClose != nil {
		cb.OnClose(reason)
	}
}

func (cb Callbacks) failed(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
