package clock

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once, or after the
// callback already ran, is a no-op.
type Cancel func()

// Stop invokes c if it is set, so owners can hold a zero Cancel.
func (c Cancel) Stop() {
	if c != nil {
		c()
	}
}

// Clock is the time source engines schedule their delayed transitions on.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Cancel
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Cancel {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Every runs f every d until the returned Cancel is called. The next run is
// armed only after f returns, so runs never overlap.
func Every(c Clock, d time.Duration, f func()) Cancel {
	r := &repeater{clock: c, every: d, f: f}
	r.arm()
	return r.stop
}

type repeater struct {
	mu      sync.Mutex
	clock   Clock
	every   time.Duration
	f       func()
	stopped bool
	cancel  Cancel
}

func (r *repeater) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.cancel = r.clock.AfterFunc(r.every, r.run)
}

func (r *repeater) run() {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}
	r.f()
	r.arm()
}

func (r *repeater) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.cancel.Stop()
}
