// Package indicator derives the tri-state LED readings shown for each
// engine sub-indicator. Every function here is pure: the same snapshot
// always yields the same LEDs.
package indicator

import (
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// LED is a tri-state indicator reading.
type LED string

const (
	Up   LED = "up"
	Down LED = "down"
	Flat LED = "flat"
)

// LEDs holds one reading per sub-indicator.
type LEDs struct {
	Renko LED `json:"renko"`
	LR    LED `json:"lr"`
	MACD  LED `json:"macd"`
}

// Renko follows the engine's renko signal directly.
func Renko(r protocol.RenkoState) LED {
	switch r.Signal {
	case protocol.RecLong:
		return Up
	case protocol.RecShort:
		return Down
	}
	return Flat
}

// LinReg lights only when price relation and slope sign agree.
// A relation with a missing or contrary slope reads flat.
func LinReg(lr protocol.LinRegState) LED {
	if lr.Slope == nil {
		return Flat
	}
	switch {
	case lr.Relation == "ABOVE" && *lr.Slope > 0:
		return Up
	case lr.Relation == "BELOW" && *lr.Slope < 0:
		return Down
	}
	return Flat
}

// MACD lights only when the histogram sign and the line-vs-signal
// position agree.
func MACD(m protocol.MACDState) LED {
	if m.Hist == nil || m.MACD == nil || m.Signal == nil {
		return Flat
	}
	hist, line, sig := *m.Hist, *m.MACD, *m.Signal
	switch {
	case hist > 0 && line > sig:
		return Up
	case hist < 0 && line < sig:
		return Down
	}
	return Flat
}

// Derive computes all three LEDs for a snapshot.
func Derive(s protocol.Snapshot) LEDs {
	return LEDs{
		Renko: Renko(s.Renko),
		LR:    LinReg(s.LR),
		MACD:  MACD(s.MACD),
	}
}

// Recommendation returns the stance to display. The engine's value is used
// as sent; with no open session the answer is always OFFLINE.
func Recommendation(s *protocol.Snapshot, open bool) string {
	if !open {
		return protocol.RecOffline
	}
	if s == nil || s.Recommendation == "" {
		return protocol.RecFlat
	}
	return s.Recommendation
}
