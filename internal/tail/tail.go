// Package tail streams published client states as JSON lines.
package tail

import (
	"context"
	"io"

	"github.com/bytedance/sonic"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/errors"
)

// Writer encodes each state as one line of JSON.
type Writer struct {
	out         io.Writer
	changesOnly bool
	last        *client.State
	written     int
}

// NewWriter creates a Writer. With changesOnly set, a state is only written
// when its connection, ticker, recommendation or LEDs differ from the last
// written one.
func NewWriter(out io.Writer, changesOnly bool) *Writer {
	return &Writer{out: out, changesOnly: changesOnly}
}

// Write emits st unless it is filtered out. It reports whether a line was written.
func (w *Writer) Write(st client.State) (bool, error) {
	if w.changesOnly && w.last != nil && !changed(*w.last, st) {
		return false, nil
	}

	line, err := sonic.ConfigStd.Marshal(st)
	if err != nil {
		return false, errors.WrapWithCode(err, errors.ErrCodec, "Could not encode state", "")
	}
	line = append(line, '\n')
	if _, err := w.out.Write(line); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrCodec, "Could not write state", "")
	}

	w.last = &st
	w.written++
	return true, nil
}

// Written returns how many lines have been written.
func (w *Writer) Written() int {
	return w.written
}

// Run writes every state from updates until ctx is done or updates closes.
// When limit is positive Run returns after that many lines.
func (w *Writer) Run(ctx context.Context, updates <-chan client.State, limit int) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := w.Write(st); err != nil {
				return err
			}
			if limit > 0 && w.written >= limit {
				return nil
			}
		}
	}
}

func changed(a, b client.State) bool {
	return a.Conn != b.Conn ||
		a.Status != b.Status ||
		a.Ticker != b.Ticker ||
		a.Recommendation != b.Recommendation ||
		a.LEDs != b.LEDs
}
