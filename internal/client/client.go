// Package client is the facade presentation layers talk to. It composes the
// connection manager, codec, indicator deriver and score history, keeps one
// canonical display State, and republishes it after every change.
//
// All state lives on a single event loop. Exported methods are safe to call
// from any goroutine: they validate input synchronously and post the work.
package client

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/eventloop"
	"github.com/rileyhilliard/sigmon/internal/history"
	"github.com/rileyhilliard/sigmon/internal/indicator"
	"github.com/rileyhilliard/sigmon/internal/logger"
	"github.com/rileyhilliard/sigmon/internal/protocol"
	"github.com/rileyhilliard/sigmon/internal/transport"
)

// Options configures a Client.
type Options struct {
	Endpoints      []string
	ReconnectDelay time.Duration
	CycleRestart   time.Duration
	HistorySize    int
	// DefaultTicker, when set, is switched to once per session after the
	// first instrument list that contains it.
	DefaultTicker string
	// Params seeds the staged parameter set. Nil means the defaults.
	Params *protocol.StrategyParams

	// Transport defaults to a gorilla websocket built from Websocket.
	Transport transport.Transport
	Websocket transport.WebsocketOptions
	// Scheduler defaults to an internal loop driven by Run. Tests pass a
	// fake and drive it themselves.
	Scheduler eventloop.Scheduler
	Logger    logger.Logger
}

// Client is the facade over one engine connection.
type Client struct {
	loop  *eventloop.Loop
	sched eventloop.Scheduler
	mgr   *conn.Manager
	hist  *history.Buffer
	log   logger.Logger

	defaultTicker string

	// loop-confined
	state           State
	snap            *protocol.Snapshot
	defaultSwitched bool

	mu      sync.RWMutex
	current State
	subs    map[int]chan State
	nextSub int
}

// New builds a client. Nothing connects until Connect is called.
func New(opts Options) (*Client, error) {
	log := logger.OrNoop(opts.Logger)

	staged := protocol.DefaultParams()
	if opts.Params != nil {
		if err := opts.Params.Validate(); err != nil {
			return nil, err
		}
		staged = *opts.Params
	}

	c := &Client{
		hist:          history.New(opts.HistorySize),
		log:           log,
		defaultTicker: strings.TrimSpace(opts.DefaultTicker),
		state:         initialState(staged),
		subs:          make(map[int]chan State),
	}

	c.sched = opts.Scheduler
	if c.sched == nil {
		c.loop = eventloop.New()
		c.sched = c.loop
	}

	tr := opts.Transport
	if tr == nil {
		wsOpts := opts.Websocket
		if wsOpts.Logger == nil {
			wsOpts.Logger = log
		}
		tr = transport.NewWebsocket(wsOpts)
	}

	mgr, err := conn.New(conn.Options{
		Endpoints:      opts.Endpoints,
		ReconnectDelay: opts.ReconnectDelay,
		CycleRestart:   opts.CycleRestart,
		Transport:      tr,
		Scheduler:      c.sched,
		Logger:         log,
		Handler: conn.Handler{
			OnStatus:  c.onStatus,
			OnOpen:    c.onOpen,
			OnMessage: c.onMessage,
		},
	})
	if err != nil {
		return nil, err
	}
	c.mgr = mgr
	c.state.Endpoint = mgr.Endpoint()
	c.current = c.state.Clone()
	return c, nil
}

// Run drives the internal event loop until ctx is done, then closes the
// session and every subscription. It returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	if c.loop == nil {
		return errors.New(errors.ErrConfig, "Client uses an external scheduler", "Drive the scheduler directly instead of calling Run")
	}
	err := c.loop.Run(ctx)
	// the loop goroutine is gone, so this goroutine now owns the state
	c.mgr.Close()
	c.closeSubscriptions()
	return err
}

// Connect starts a fresh connection cycle from the first endpoint.
func (c *Client) Connect() {
	c.sched.Post(c.mgr.Connect)
}

// Close disconnects and stops automatic reconnection.
func (c *Client) Close() {
	c.sched.Post(c.mgr.Close)
}

// SwitchTicker asks the engine to stream another instrument.
func (c *Client) SwitchTicker(ticker string) error {
	ticker, err := cleanTicker(ticker, protocol.CmdSwitchTicker)
	if err != nil {
		return err
	}
	c.sched.Post(func() { c.send(protocol.SwitchTicker{Ticker: ticker}) })
	return nil
}

// LoadArchive asks the engine to replay stored history for ticker.
func (c *Client) LoadArchive(ticker string) error {
	ticker, err := cleanTicker(ticker, protocol.CmdLoadArchive)
	if err != nil {
		return err
	}
	c.sched.Post(func() { c.send(protocol.LoadArchive{Ticker: ticker}) })
	return nil
}

// SetParam stages one parameter edit from user text. Input that is not a
// finite number, or an unknown field, is rejected and nothing is staged.
func (c *Client) SetParam(field, raw string) error {
	v, err := ParseParamValue(field, raw)
	if err != nil {
		return err
	}
	probe := protocol.DefaultParams()
	if err := probe.Set(field, v); err != nil {
		return err
	}

	c.sched.Post(func() {
		_ = c.state.Staged.Set(field, v)
		c.state.StagedDirty = c.state.Staged != c.state.Params
		c.publish()
	})
	return nil
}

// StageParams replaces the staged set wholesale.
func (c *Client) StageParams(p protocol.StrategyParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.sched.Post(func() {
		c.state.Staged = p
		c.state.StagedDirty = c.state.Staged != c.state.Params
		c.publish()
	})
	return nil
}

// ResetStaged discards staged edits.
func (c *Client) ResetStaged() {
	c.sched.Post(func() {
		c.state.Staged = c.state.Params
		c.state.StagedDirty = false
		c.publish()
	})
}

// ApplyParams sends the staged set to the engine. The authoritative set
// only changes when the engine answers with a params event.
func (c *Client) ApplyParams() {
	c.sched.Post(func() {
		c.send(protocol.ApplyParams{Params: c.state.Staged})
	})
}

// Current returns the latest published state.
func (c *Client) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Subscribe returns a channel that always holds the latest published state.
// A slow reader skips intermediate states; publication never blocks.
// The current state is delivered immediately. cancel closes the channel.
func (c *Client) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.current.Clone()
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// ParseParamValue coerces user text into a parameter value.
func ParseParamValue(field, raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.WrapWithCode(err, errors.ErrParams,
			fmt.Sprintf("'%s' is not a valid value for %s", raw, field),
			"Enter a plain decimal number like 1.5")
	}
	return v, nil
}

func cleanTicker(ticker, cmd string) (string, error) {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return "", errors.New(errors.ErrCmd,
			fmt.Sprintf("%s needs a ticker", cmd),
			"Pick one of the instruments the engine listed")
	}
	return t, nil
}

func (c *Client) send(cmd protocol.Command) {
	data, err := protocol.Encode(cmd)
	if err != nil {
		c.log.Warn("not sending %s: %v", cmd.Name(), err)
		return
	}
	if c.mgr.Send(data) {
		c.log.Debug("sent %s", cmd.Name())
	}
}

func (c *Client) onStatus(st conn.Status) {
	c.state.Conn = st.State
	c.state.Status = st.Text
	c.state.Endpoint = st.Endpoint
	c.state.Attempt = st.Attempt
	c.state.RetryPending = st.RetryPending

	if st.State != conn.Open {
		c.state.Recommendation = indicator.Recommendation(nil, false)
	}
	c.publish()
}

func (c *Client) onOpen() {
	c.snap = nil
	c.defaultSwitched = false
	c.send(protocol.ListInstruments{})
}

func (c *Client) onMessage(data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		c.log.Debug("discarding frame: %v", err)
		return
	}

	switch e := ev.(type) {
	case protocol.Hello:
		return
	case protocol.Instruments:
		c.applyInstruments(e)
	case protocol.Params:
		c.state.Params = e.Params
		c.state.Staged = e.Params
		c.state.StagedDirty = false
		c.state.ParamsReceived++
	case protocol.Status:
		c.state.Status = e.Text
	case protocol.BackfillDone:
		c.state.BackfillRows = e.Rows
		c.state.Status = fmt.Sprintf("backfill done: %d rows", e.Rows)
	case protocol.Snapshot:
		c.applySnapshot(e)
	}
	c.publish()
}

func (c *Client) applyInstruments(e protocol.Instruments) {
	if len(e.Items) == 0 {
		return
	}
	c.state.Instruments = append([]protocol.Instrument{}, e.Items...)

	if c.defaultTicker == "" || c.defaultSwitched {
		return
	}
	c.defaultSwitched = true
	if _, ok := c.state.Instrument(c.defaultTicker); !ok {
		c.log.Warn("default ticker %s is not offered by the engine", c.defaultTicker)
		return
	}
	c.send(protocol.SwitchTicker{Ticker: c.defaultTicker})
}

func (c *Client) applySnapshot(s protocol.Snapshot) {
	c.snap = &s
	c.hist.Append(s.ScoreOrZero())

	st := &c.state
	st.Ticker = orPlaceholder(s.Ticker)
	st.Time = formatTime(s.Time, s.TimeText)
	st.Price = formatNum(s.Price, 2)
	st.Score = formatNum(s.Score, 2)
	st.Confidence = formatNum(s.Confidence, 2)
	st.Brick = formatNum(s.Brick, 2)
	st.NextUp = formatNum(s.NextUp, 2)
	st.NextDown = formatNum(s.NextDown, 2)
	st.LEDs = indicator.Derive(s)
	st.RenkoInfo = renkoInfo(s.Renko)
	st.LRInfo = lrInfo(s.LR)
	st.MACDInfo = macdInfo(s.MACD)
	st.Reasons = append([]string{}, s.Reasons...)
	st.Recommendation = indicator.Recommendation(c.snap, c.mgr.State() == conn.Open)
	st.History = c.hist.Values()
	st.Snapshots++
}

func (c *Client) publish() {
	c.state.Updates++
	snap := c.state.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = snap
	for _, ch := range c.subs {
		// keep only the newest value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

func (c *Client) closeSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
