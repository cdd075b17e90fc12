// Package testing provides test doubles for the eventloop package.
package testing

import (
	"sort"
	"time"

	"github.com/rileyhilliard/sigmon/internal/eventloop"
)

// FakeScheduler is a manual eventloop.Scheduler with a virtual clock.
// Nothing runs until the test calls Drain or Advance, so tests decide
// exactly when callbacks and timers fire. It is not safe for concurrent use.
type FakeScheduler struct {
	now    time.Duration
	queue  []func()
	timers []*FakeTimer
	seq    int
}

// NewFakeScheduler creates a scheduler with its clock at zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// FakeTimer is a timer created by FakeScheduler.
type FakeTimer struct {
	At      time.Duration
	Delay   time.Duration
	fn      func()
	seq     int
	stopped bool
	fired   bool
}

// Stop cancels the timer if it has not fired.
func (t *FakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Post queues fn.
func (s *FakeScheduler) Post(fn func()) {
	s.queue = append(s.queue, fn)
}

// AfterFunc registers fn to run once the virtual clock passes d from now.
func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	s.seq++
	t := &FakeTimer{At: s.now + d, Delay: d, fn: fn, seq: s.seq}
	s.timers = append(s.timers, t)
	return t
}

// Drain runs queued work, including work queued while draining, and
// returns how many functions ran.
func (s *FakeScheduler) Drain() int {
	n := 0
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
		n++
	}
	return n
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining the queue after each fire.
func (s *FakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	s.Drain()
	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		s.now = t.At
		t.fired = true
		t.fn()
		s.Drain()
	}
	s.now = target
}

// Now returns the virtual time elapsed since creation.
func (s *FakeScheduler) Now() time.Duration {
	return s.now
}

// Pending returns the timers that have neither fired nor been stopped,
// earliest first.
func (s *FakeScheduler) Pending() []*FakeTimer {
	var out []*FakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At != out[j].At {
			return out[i].At < out[j].At
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Queued returns the number of posted functions waiting to run.
func (s *FakeScheduler) Queued() int {
	return len(s.queue)
}

func (s *FakeScheduler) nextDue(limit time.Duration) *FakeTimer {
	pending := s.Pending()
	if len(pending) == 0 || pending[0].At > limit {
		return nil
	}
	return pending[0]
}

var _ eventloop.Scheduler = (*FakeScheduler)(nil)
