package client

import (
	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/indicator"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// Placeholder is shown for any value the engine has not sent.
const Placeholder = "—"

// State is the canonical display state published to consumers.
// Published values are copies and never change after publication.
type State struct {
	Conn         conn.State `json:"conn"`
	Status       string     `json:"status"`
	Endpoint     string     `json:"endpoint"`
	Attempt      int        `json:"attempt"`
	RetryPending bool       `json:"retry_pending"`

	Ticker     string `json:"ticker"`
	Time       string `json:"time"`
	Price      string `json:"price"`
	Score      string `json:"score"`
	Confidence string `json:"confidence"`
	Brick      string `json:"brick"`
	NextUp     string `json:"next_up"`
	NextDown   string `json:"next_down"`

	LEDs      indicator.LEDs `json:"leds"`
	RenkoInfo string         `json:"renko_info"`
	LRInfo    string         `json:"lr_info"`
	MACDInfo  string         `json:"macd_info"`
	Reasons   []string       `json:"reasons"`

	Recommendation string    `json:"recommendation"`
	History        []float64 `json:"history"`

	Instruments []protocol.Instrument   `json:"instruments"`
	Params      protocol.StrategyParams `json:"params"`
	Staged      protocol.StrategyParams `json:"staged"`
	StagedDirty bool                    `json:"staged_dirty"`
	// ParamsReceived counts params events. Until the first one, Params holds
	// the defaults rather than the engine's set.
	ParamsReceived uint64 `json:"params_received"`

	BackfillRows int `json:"backfill_rows"`
	// Snapshots counts snapshot events; Updates counts every publication.
	Snapshots uint64 `json:"snapshots"`
	Updates   uint64 `json:"updates"`
}

func initialState(staged protocol.StrategyParams) State {
	return State{
		Conn:           conn.Idle,
		Status:         "idle",
		Ticker:         Placeholder,
		Time:           Placeholder,
		Price:          Placeholder,
		Score:          Placeholder,
		Confidence:     Placeholder,
		Brick:          Placeholder,
		NextUp:         Placeholder,
		NextDown:       Placeholder,
		LEDs:           indicator.LEDs{Renko: indicator.Flat, LR: indicator.Flat, MACD: indicator.Flat},
		RenkoInfo:      Placeholder,
		LRInfo:         Placeholder,
		MACDInfo:       Placeholder,
		Reasons:        []string{},
		Recommendation: protocol.RecOffline,
		History:        []float64{},
		Instruments:    []protocol.Instrument{},
		Params:         protocol.DefaultParams(),
		Staged:         staged,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Reasons = append([]string{}, s.Reasons...)
	out.History = append([]float64{}, s.History...)
	out.Instruments = append([]protocol.Instrument{}, s.Instruments...)
	return out
}

// Instrument looks up a known instrument by ticker.
func (s State) Instrument(ticker string) (protocol.Instrument, bool) {
	for _, in := range s.Instruments {
		if in.Ticker == ticker {
			return in, true
		}
	}
	return protocol.Instrument{}, false
}
