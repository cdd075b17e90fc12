// Package eventloop runs work one function at a time on a single goroutine.
//
// The connection manager and client facade keep all of their state on the
// loop: transport callbacks, user commands and timer fires are posted here
// and never overlap, so none of that state needs locking.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler accepts work for the loop goroutine.
type Scheduler interface {
	// Post queues fn to run on the loop. It never blocks.
	Post(fn func())
	// AfterFunc runs fn on the loop once d has elapsed, unless stopped first.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop cancels the call. It reports whether the call was still pending.
	Stop() bool
}

// Loop is the production Scheduler.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
	done    bool
}

// New creates a loop. Work posted before Run is kept and runs first.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn. Posts made after Run has returned are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc schedules fn onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return t
}

// Run executes posted work on the calling goroutine until ctx is done.
// It returns ctx.Err(). Run may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running || l.done {
		l.mu.Unlock()
		panic("eventloop: Run called twice")
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.done = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		// drain before waiting so work posted before Run is not stuck
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn := l.pop()
			if fn == nil {
				break
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Stop also covers the window where the timer has fired but the loop has
// not yet run the callback.
func (t *loopTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.timer.Stop()
	return true
}
