package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/sigmon/internal/protocol"
)

const timeLayout = "2006-01-02 15:04:05"

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func formatNum(v *float64, prec int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func formatTime(t time.Time, raw string) string {
	if !t.IsZero() {
		return t.Format(timeLayout)
	}
	return orPlaceholder(raw)
}

func renkoInfo(r protocol.RenkoState) string {
	count := Placeholder
	if r.Count != nil {
		count = strconv.Itoa(*r.Count)
	}
	return fmt.Sprintf("%s n=%s dir=%s", orPlaceholder(r.Signal), count, orPlaceholder(r.Dir))
}

func lrInfo(lr protocol.LinRegState) string {
	return fmt.Sprintf("%s slope=%s lr=%s Δ=%s ε=%s",
		orPlaceholder(lr.Relation),
		formatNum(lr.Slope, 4),
		formatNum(lr.Last, 2),
		formatNum(lr.Delta, 4),
		formatNum(lr.Eps, 4))
}

func macdInfo(m protocol.MACDState) string {
	return fmt.Sprintf("macd=%s signal=%s hist=%s ε=%s",
		formatNum(m.MACD, 4),
		formatNum(m.Signal, 4),
		formatNum(m.Hist, 4),
		formatNum(m.Eps, 4))
}
