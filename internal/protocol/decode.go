package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/rileyhilliard/sigmon/internal/errors"
)

var api = sonic.ConfigStd

type envelope struct {
	Type string `json:"type"`
}

type wireInstruments struct {
	Items []Instrument `json:"items"`
}

type wireParams struct {
	Params json.RawMessage `json:"params"`
}

type wireStatus struct {
	Text    *string `json:"text"`
	Message *string `json:"message"`
}

type wireBackfill struct {
	Rows  *float64 `json:"rows"`
	Count *float64 `json:"count"`
}

type wireRenko struct {
	Signal interface{} `json:"signal"`
	N      *float64    `json:"n"`
	Dir    interface{} `json:"dir"`
}

type wireLR struct {
	Relation interface{} `json:"relation"`
	Slope    *float64    `json:"slope"`
	LRLast   *float64    `json:"lr_last"`
	Delta    *float64    `json:"delta"`
	Eps      *float64    `json:"eps"`
}

type wireMACD struct {
	MACD   *float64 `json:"macd"`
	Signal *float64 `json:"signal"`
	Hist   *float64 `json:"hist"`
	Eps    *float64 `json:"eps"`
}

type wireSnapshot struct {
	Ticker         string        `json:"ticker"`
	Time           interface{}   `json:"time"`
	Ts             interface{}   `json:"ts"`
	Price          *float64      `json:"price"`
	Last           *float64      `json:"last"`
	Score          *float64      `json:"score"`
	Confidence     *float64      `json:"confidence"`
	Brick          *float64      `json:"brick"`
	NextUp         *float64      `json:"next_up"`
	NextDown       *float64      `json:"next_down"`
	Renko          *wireRenko    `json:"renko"`
	LR             *wireLR       `json:"lr"`
	MACD           *wireMACD     `json:"macd"`
	Recommendation interface{}   `json:"recommendation"`
	Reasons        []interface{} `json:"reasons"`
}

// Decode turns one raw frame into a typed Event. Malformed frames, frames
// without a recognized "type", and frames whose body does not match their
// type yield a CODEC error; Decode never panics on input.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := api.Unmarshal(raw, &env); err != nil {
		return nil, decodeErr(err, "Frame is not a JSON object")
	}

	switch env.Type {
	case TypeHello:
		return Hello{}, nil
	case TypeInstruments:
		return decodeInstruments(raw)
	case TypeParams:
		return decodeParams(raw)
	case TypeStatus:
		return decodeStatus(raw)
	case TypeBackfillDone:
		return decodeBackfill(raw)
	case TypeSnapshot:
		return decodeSnapshot(raw)
	case "":
		return nil, errors.New(errors.ErrCodec, "Frame has no 'type' field", "")
	default:
		return nil, errors.New(errors.ErrCodec, fmt.Sprintf("Unknown frame type '%s'", env.Type), "")
	}
}

func decodeErr(err error, msg string) error {
	return errors.WrapWithCode(err, errors.ErrCodec, msg, "")
}

func decodeInstruments(raw []byte) (Event, error) {
	var w wireInstruments
	if err := api.Unmarshal(raw, &w); err != nil {
		return nil, decodeErr(err, "Malformed instruments frame")
	}

	items := make([]Instrument, 0, len(w.Items))
	for _, it := range w.Items {
		it.Ticker = strings.TrimSpace(it.Ticker)
		if it.Ticker == "" {
			continue
		}
		if it.DisplayName == "" {
			it.DisplayName = it.Ticker
		}
		items = append(items, it)
	}
	return Instruments{Items: items}, nil
}

func decodeParams(raw []byte) (Event, error) {
	var w wireParams
	if err := api.Unmarshal(raw, &w); err != nil {
		return nil, decodeErr(err, "Malformed params frame")
	}

	// The engine may nest the set under "params" or flatten it into the
	// envelope. Either way decoding starts from the defaults.
	body := raw
	if len(w.Params) > 0 && string(w.Params) != "null" {
		body = w.Params
	}

	p := DefaultParams()
	if err := api.Unmarshal(body, &p); err != nil {
		return nil, decodeErr(err, "Malformed params frame")
	}
	if err := p.Validate(); err != nil {
		return nil, decodeErr(err, "Params frame has non-finite values")
	}
	return Params{Params: p}, nil
}

func decodeStatus(raw []byte) (Event, error) {
	var w wireStatus
	if err := api.Unmarshal(raw, &w); err != nil {
		return nil, decodeErr(err, "Malformed status frame")
	}
	switch {
	case w.Text != nil:
		return Status{Text: *w.Text}, nil
	case w.Message != nil:
		return Status{Text: *w.Message}, nil
	}
	return nil, errors.New(errors.ErrCodec, "Status frame has no 'text' or 'message'", "")
}

func decodeBackfill(raw []byte) (Event, error) {
	var w wireBackfill
	if err := api.Unmarshal(raw, &w); err != nil {
		return nil, decodeErr(err, "Malformed backfill_done frame")
	}
	n := w.Rows
	if n == nil {
		n = w.Count
	}
	if n == nil || math.IsNaN(*n) || *n < 0 {
		return BackfillDone{}, nil
	}
	return BackfillDone{Rows: int(*n)}, nil
}

func decodeSnapshot(raw []byte) (Event, error) {
	var w wireSnapshot
	if err := api.Unmarshal(raw, &w); err != nil {
		return nil, decodeErr(err, "Malformed snapshot frame")
	}

	snap := Snapshot{
		Ticker:         strings.TrimSpace(w.Ticker),
		Price:          w.Price,
		Score:          w.Score,
		Confidence:     w.Confidence,
		Brick:          w.Brick,
		NextUp:         w.NextUp,
		NextDown:       w.NextDown,
		Recommendation: normalizeRecommendation(w.Recommendation),
	}
	if snap.Price == nil {
		snap.Price = w.Last
	}

	ts := w.Time
	if ts == nil {
		ts = w.Ts
	}
	snap.Time, snap.TimeText = parseTimestamp(ts)

	if w.Renko != nil {
		snap.Renko.Signal = strings.ToUpper(flexText(w.Renko.Signal))
		snap.Renko.Dir = dirText(w.Renko.Dir)
		if w.Renko.N != nil {
			n := int(*w.Renko.N)
			snap.Renko.Count = &n
		}
	}

	if w.LR != nil {
		snap.LR = LinRegState{
			Relation: strings.ToUpper(flexText(w.LR.Relation)),
			Slope:    w.LR.Slope,
			Last:     w.LR.LRLast,
			Delta:    w.LR.Delta,
			Eps:      w.LR.Eps,
		}
	}

	if w.MACD != nil {
		snap.MACD = MACDState{
			MACD:   w.MACD.MACD,
			Signal: w.MACD.Signal,
			Hist:   w.MACD.Hist,
			Eps:    w.MACD.Eps,
		}
	}

	if len(w.Reasons) > 0 {
		snap.Reasons = make([]string, 0, len(w.Reasons))
		for _, r := range w.Reasons {
			if s := flexText(r); s != "" {
				snap.Reasons = append(snap.Reasons, s)
			}
		}
	}

	return snap, nil
}

func normalizeRecommendation(v interface{}) string {
	switch rec := strings.ToUpper(flexText(v)); rec {
	case RecLong, RecShort, RecFlat:
		return rec
	}
	return ""
}

// flexText renders a loosely typed JSON scalar as text.
func flexText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// dirText accepts either a signed number or a word for a direction.
func dirText(v interface{}) string {
	if f, ok := v.(float64); ok {
		switch {
		case f > 0:
			return "UP"
		case f < 0:
			return "DOWN"
		default:
			return "FLAT"
		}
	}
	return strings.ToUpper(flexText(v))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimestamp accepts epoch seconds, epoch milliseconds or a date string.
// Unparseable strings come back verbatim as text.
func parseTimestamp(v interface{}) (time.Time, string) {
	switch t := v.(type) {
	case float64:
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, ""
		}
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC(), ""
		}
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), ""
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), ""
			}
		}
		return time.Time{}, s
	}
	return time.Time{}, ""
}
