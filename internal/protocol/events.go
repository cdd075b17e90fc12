// Package protocol implements the engine's JSON wire format: inbound events
// keyed by "type" and outbound {"type":"cmd"} commands.
package protocol

import "time"

// Inbound event types.
const (
	TypeHello        = "hello"
	TypeInstruments  = "instruments"
	TypeParams       = "params"
	TypeStatus       = "status"
	TypeBackfillDone = "backfill_done"
	TypeSnapshot     = "snapshot"
)

// Recommendation values. OFFLINE is never sent by the engine; the client
// uses it when no session is open.
const (
	RecLong    = "LONG"
	RecShort   = "SHORT"
	RecFlat    = "FLAT"
	RecOffline = "OFFLINE"
)

// Event is one decoded inbound message.
type Event interface {
	Type() string
}

// Hello acknowledges the handshake. It carries nothing the client uses.
type Hello struct{}

// Instruments lists the tickers the engine can stream.
type Instruments struct {
	Items []Instrument
}

// Instrument is a tradable ticker known to the engine.
type Instrument struct {
	Ticker      string `json:"ticker"`
	DisplayName string `json:"name"`
	HasArchive  bool   `json:"has_archive"`
}

// Params is the engine's authoritative parameter set, already defaulted.
type Params struct {
	Params StrategyParams
}

// Status carries a display string from the engine.
type Status struct {
	Text string
}

// BackfillDone reports how many rows the engine replayed.
type BackfillDone struct {
	Rows int
}

// RenkoState is the renko sub-state of a snapshot.
type RenkoState struct {
	Signal string
	Count  *int
	Dir    string
}

// LinRegState is the linear-regression sub-state of a snapshot.
type LinRegState struct {
	Relation string
	Slope    *float64
	Last     *float64
	Delta    *float64
	Eps      *float64
}

// MACDState is the MACD sub-state of a snapshot.
type MACDState struct {
	MACD   *float64
	Signal *float64
	Hist   *float64
	Eps    *float64
}

// Snapshot is one complete signal state from the engine. Optional numeric
// fields are nil when absent so consumers can show a placeholder.
type Snapshot struct {
	Ticker     string
	Time       time.Time // zero when the engine sent no parseable timestamp
	TimeText   string    // the timestamp as sent when it was not parseable
	Price      *float64
	Score      *float64
	Confidence *float64
	Brick      *float64
	NextUp     *float64
	NextDown   *float64
	Renko      RenkoState
	LR         LinRegState
	MACD       MACDState
	// Recommendation is LONG, SHORT, FLAT or empty when absent/unknown.
	Recommendation string
	Reasons        []string
}

func (Hello) Type() string        { return TypeHello }
func (Instruments) Type() string  { return TypeInstruments }
func (Params) Type() string       { return TypeParams }
func (Status) Type() string       { return TypeStatus }
func (BackfillDone) Type() string { return TypeBackfillDone }
func (Snapshot) Type() string     { return TypeSnapshot }

// ScoreOrZero returns the score, or 0 when the snapshot had none.
func (s Snapshot) ScoreOrZero() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}
