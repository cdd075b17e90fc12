package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/sigmon/internal/protocol"
	"github.com/rileyhilliard/sigmon/internal/transport"
)

// DefaultProbeTimeout bounds one endpoint probe.
const DefaultProbeTimeout = 5 * time.Second

// EndpointCheck dials one endpoint, asks for the instrument list and checks
// that the engine answers with frames it can decode.
type EndpointCheck struct {
	Endpoint  string
	Transport transport.Transport
	Timeout   time.Duration
}

func (c *EndpointCheck) Name() string     { return "endpoint:" + c.Endpoint }
func (c *EndpointCheck) Category() string { return "ENDPOINTS" }

type probeEvent struct {
	open   bool
	data   []byte
	reason string
	err    error
	ended  bool
}

func (c *EndpointCheck) Run(ctx context.Context) CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events := make(chan probeEvent, 16)
	push := func(ev probeEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	started := time.Now()
	sess := c.Transport.Dial(c.Endpoint, transport.Callbacks{
		OnOpen:    func() { push(probeEvent{open: true}) },
		OnMessage: func(data []byte) { push(probeEvent{data: data}) },
		OnClose:   func(reason string) { push(probeEvent{ended: true, reason: reason}) },
		OnError:   func(err error) { push(probeEvent{ended: true, err: err}) },
	})
	defer sess.Close()

	opened := false
	undecodable := 0
	for {
		select {
		case <-ctx.Done():
			if !opened {
				return c.fail(fmt.Sprintf("%s: no connection after %s", c.Endpoint, timeout),
					"Check that the engine is running and reachable from here")
			}
			msg := fmt.Sprintf("%s: connected but the engine sent no instrument list", c.Endpoint)
			if undecodable > 0 {
				msg = fmt.Sprintf("%s: connected but %d frame%s could not be decoded", c.Endpoint, undecodable, pluralize(undecodable))
			}
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    msg,
				Suggestion: "The engine may be busy backfilling or speak a different protocol version",
			}

		case ev := <-events:
			switch {
			case ev.open:
				opened = true
				if data, err := protocol.Encode(protocol.ListInstruments{}); err == nil {
					_ = sess.Send(data)
				}

			case ev.ended:
				if ev.err != nil {
					return c.fail(fmt.Sprintf("%s: %s", c.Endpoint, firstLine(ev.err.Error())),
						"Check the endpoint URL and that the engine is listening")
				}
				return c.fail(fmt.Sprintf("%s: closed by the engine (%s)", c.Endpoint, ev.reason), "")

			default:
				decoded, err := protocol.Decode(ev.data)
				if err != nil {
					undecodable++
					continue
				}
				if inst, ok := decoded.(protocol.Instruments); ok {
					n := len(inst.Items)
					return CheckResult{
						Name:   c.Name(),
						Status: StatusPass,
						Message: fmt.Sprintf("%s: %d instrument%s in %s",
							c.Endpoint, n, pluralize(n), time.Since(started).Round(time.Millisecond)),
					}
				}
			}
		}
	}
}

func (c *EndpointCheck) fail(msg, suggestion string) CheckResult {
	return CheckResult{
		Name:       c.Name(),
		Status:     StatusFail,
		Message:    msg,
		Suggestion: suggestion,
	}
}

func (c *EndpointCheck) Fix() error {
	return nil
}

// NewEndpointChecks creates one probe per endpoint.
func NewEndpointChecks(endpoints []string, tr transport.Transport, timeout time.Duration) []Check {
	checks := make([]Check, 0, len(endpoints))
	for _, ep := range endpoints {
		checks = append(checks, &EndpointCheck{Endpoint: ep, Transport: tr, Timeout: timeout})
	}
	return checks
}
