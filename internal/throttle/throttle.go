// Package throttle implements a time-windowed, last-value-wins suppressor.
//
// The first value after a quiet period is sent immediately. Values pushed
// inside the window overwrite each other and only the most recent one is
// sent when the window closes. It is not a queue: intermediate values are
// lost.
package throttle

import (
	"sync"
	"time"
)

// Clock abstracts time so tests can drive the window by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type settings struct {
	clock Clock
}

type Option func(*settings)

func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// Throttle is safe for concurrent use.
type Throttle[T any] struct {
	mu         sync.Mutex
	interval   time.Duration
	clock      Clock
	emit       func(T)
	last       time.Time
	sent       bool
	pending    T
	hasPending bool
	timer      Timer
	gen        uint64
	stopped    bool
}

func New[T any](interval time.Duration, emit func(T), opts ...Option) *Throttle[T] {
	s := settings{clock: realClock{}}
	for _, opt := range opts {
		opt(&s)
	}
	return &Throttle[T]{interval: interval, clock: s.clock, emit: emit}
}

// Push offers v for emission.
func (t *Throttle[T]) Push(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	if t.timer == nil && (!t.sent || now.Sub(t.last) >= t.interval) {
		t.last, t.sent = now, true
		var zero T
		t.pending, t.hasPending = zero, false
		t.mu.Unlock()
		t.emit(v)
		return
	}
	t.pending, t.hasPending = v, true
	if t.timer == nil {
		gen := t.gen
		t.timer = t.clock.AfterFunc(t.interval-now.Sub(t.last), func() { t.fire(gen) })
	}
	t.mu.Unlock()
}

// fire runs when the window of generation gen closes. A callback that
// outlived Cancel carries an old generation and does nothing.
func (t *Throttle[T]) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	if t.stopped || !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	var zero T
	t.pending, t.hasPending = zero, false
	t.last, t.sent = t.clock.Now(), true
	t.mu.Unlock()
	t.emit(v)
}

// Cancel drops a pending value without sending it.
func (t *Throttle[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Throttle[T]) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	var zero T
	t.pending, t.hasPending = zero, false
}

// Stop cancels any pending value; later pushes and late timer fires are no-ops.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.cancelLocked()
}
