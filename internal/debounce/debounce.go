// Package debounce delays an action until a stream of triggers goes quiet.
//
// Recognition is expensive. A user drawing one character lifts the pen
// several times; each stroke end triggers the debouncer, and only the last
// trigger, once the delay elapses with no newer trigger, runs the action.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock wraps time.AfterFunc; tests
// supply a manual one.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall-clock implementation of Clock.
func RealClock() Clock { return realClock{} }

// Debouncer runs fn once per quiet period.
//
// Trigger (re)arms the timer; an armed timer that has not fired yet is
// stopped and replaced. The callback runs on the clock's goroutine, without
// the debouncer's lock held. Debouncer is safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	clock Clock
	fn    func()
	timer Timer
	gen   uint64
}

// New returns a debouncer that calls fn delay after the last Trigger.
// A nil clock means the wall clock.
func New(delay time.Duration, clock Clock, fn func()) *Debouncer {
	if clock == nil {
		clock = RealClock()
	}
	return &Debouncer{delay: delay, clock: clock, fn: fn}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn unless a newer Trigger or a Cancel happened after this timer
// was armed. Stop cannot recall a callback the runtime already started, so
// the generation check is what guarantees a single run per quiet period.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel disarms a pending timer. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a timer is armed and has not fired.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
