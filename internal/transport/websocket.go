package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/logger"
)

// Default websocket settings.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 2 * time.Second
	DefaultPingInterval = 20 * time.Second
	DefaultReadLimit    = 4 << 20
)

// WebsocketOptions configures the gorilla-backed transport.
// Zero values fall back to the defaults above; a negative PingInterval
// disables keepalive pings.
type WebsocketOptions struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
	Header       http.Header
	Logger       logger.Logger
}

// Websocket dials engine endpoints with gorilla/websocket.
type Websocket struct {
	opts   WebsocketOptions
	dialer *websocket.Dialer
	log    logger.Logger
}

// NewWebsocket creates a websocket transport.
func NewWebsocket(opts WebsocketOptions) *Websocket {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	return &Websocket{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.DialTimeout,
		},
		log: logger.OrNoop(opts.Logger),
	}
}

// Dial starts connecting in the background.
func (w *Websocket) Dial(endpoint string, cb Callbacks) Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &wsSession{
		endpoint: endpoint,
		cb:       cb,
		opts:     w.opts,
		log:      w.log,
		cancel:   cancel,
	}
	go s.run(ctx, w.dialer)
	return s
}

type wsSession struct {
	endpoint string
	cb       Callbacks
	opts     WebsocketOptions
	log      logger.Logger
	cancel   context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	writeMu sync.Mutex
	endOnce sync.Once
}

func (s *wsSession) run(ctx context.Context, dialer *websocket.Dialer) {
	dialCtx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	conn, _, err := dialer.DialContext(dialCtx, s.endpoint, s.opts.Header)
	cancel()
	if err != nil {
		s.fail(errors.WrapWithCode(err, errors.ErrConn,
			fmt.Sprintf("Could not connect to %s", s.endpoint),
			"Check that the engine is running and the endpoint is reachable"))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.log.Debug("websocket open: %s", s.endpoint)
	if !s.isClosed() {
		s.cb.open()
	}

	conn.SetReadLimit(s.opts.ReadLimit)
	if s.opts.PingInterval > 0 {
		pongWait := 2 * s.opts.PingInterval
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go s.pingLoop(ctx, conn)
	}

	s.readLoop(conn)
}

func (s *wsSession) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason := "closed by server"
				if ce, ok := err.(*websocket.CloseError); ok && ce.Text != "" {
					reason = ce.Text
				}
				s.end(func() { s.cb.closed(reason) })
			} else {
				s.fail(errors.WrapWithCode(err, errors.ErrConn,
					fmt.Sprintf("Connection to %s lost", s.endpoint), ""))
			}
			s.teardown()
			return
		}

		if s.opts.PingInterval > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
		}
		if s.isClosed() {
			return
		}
		s.cb.message(data)
	}
}

func (s *wsSession) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.opts.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.Debug("ping failed on %s: %v", s.endpoint, err)
				return
			}
		}
	}
}

func (s *wsSession) fail(err error) {
	if s.isClosed() {
		return
	}
	s.log.Debug("websocket error on %s: %v", s.endpoint, err)
	s.end(func() { s.cb.failed(err) })
}

func (s *wsSession) end(report func()) {
	s.endOnce.Do(report)
}

func (s *wsSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Send writes a text frame under the configured write deadline.
func (s *wsSession) Send(data []byte) error {
	s.mu.Lock()
	conn, closed := s.conn, s.closed
	s.mu.Unlock()
	if closed || conn == nil {
		return errors.New(errors.ErrConn, "Session is not open", "")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.WrapWithCode(err, errors.ErrConn, "Write failed", "")
	}
	return nil
}

// Close sends a normal close frame when connected and releases the socket.
func (s *wsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.cancel()
	if conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.opts.WriteTimeout))
	return conn.Close()
}

// teardown releases the socket after the remote side ended the session.
func (s *wsSession) teardown() {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		conn.Close()
	}
}
