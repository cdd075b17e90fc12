package protocol

import (
	"github.com/rileyhilliard/sigmon/internal/errors"
)

// Command names understood by the engine.
const (
	CmdListInstruments = "list_instruments"
	CmdSwitchTicker    = "switch_ticker"
	CmdLoadArchive     = "load_archive"
	CmdApplyParams     = "apply_params"
)

// Command is an outbound request to the engine.
type Command interface {
	Name() string
}

// ListInstruments asks the engine for its instrument list.
type ListInstruments struct{}

// SwitchTicker moves the live stream to another ticker.
type SwitchTicker struct {
	Ticker string
}

// LoadArchive asks the engine to replay stored history for a ticker.
type LoadArchive struct {
	Ticker string
}

// ApplyParams pushes a full parameter set to the engine.
type ApplyParams struct {
	Params StrategyParams
}

func (ListInstruments) Name() string { return CmdListInstruments }
func (SwitchTicker) Name() string    { return CmdSwitchTicker }
func (LoadArchive) Name() string     { return CmdLoadArchive }
func (ApplyParams) Name() string     { return CmdApplyParams }

type wireCommand struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Ticker string          `json:"ticker,omitempty"`
	Params *StrategyParams `json:"params,omitempty"`
}

// Encode serializes a command into its {"type":"cmd"} envelope.
func Encode(cmd Command) ([]byte, error) {
	w := wireCommand{Type: "cmd"}

	switch c := cmd.(type) {
	case ListInstruments:
		w.Name = c.Name()
	case SwitchTicker:
		if c.Ticker == "" {
			return nil, errors.New(errors.ErrCmd, "switch_ticker needs a ticker", "")
		}
		w.Name, w.Ticker = c.Name(), c.Ticker
	case LoadArchive:
		if c.Ticker == "" {
			return nil, errors.New(errors.ErrCmd, "load_archive needs a ticker", "")
		}
		w.Name, w.Ticker = c.Name(), c.Ticker
	case ApplyParams:
		if err := c.Params.Validate(); err != nil {
			return nil, err
		}
		p := c.Params
		w.Name, w.Params = c.Name(), &p
	default:
		return nil, errors.New(errors.ErrCmd, "Unsupported command", "")
	}

	out, err := api.Marshal(w)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodec, "Could not encode command", "")
	}
	return out, nil
}
