package schedule

import (
	"sync"
	"time"
)

// Debouncer defers a task until Delay has passed without another Trigger.
// At most one task is armed at any time; each Trigger replaces it.
type Debouncer struct {
	sched Scheduler
	delay time.Duration

	mu      sync.Mutex
	cancel  CancelFunc
	pending func()
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer over s. A nil s means Real.
func NewDebouncer(s Scheduler, delay time.Duration) *Debouncer {
	if s == nil {
		s = Real{}
	}
	return &Debouncer{sched: s, delay: delay}
}

// Trigger cancels any armed task and arms fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.cancel = d.sched.Schedule(d.delay, func() { d.fire(gen) })
}

// A timer that already fired may still be waiting on mu while Trigger
// re-arms; the generation check drops it.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.cancel = nil
	d.mu.Unlock()
	fn()
}

// Flush runs the armed task immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped || d.pending == nil {
		d.mu.Unlock()
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	d.cancel = nil
	d.mu.Unlock()
	fn()
}

// Cancel drops the armed task, if any. Later triggers still work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.pending = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Stop cancels the armed task and ignores every later Trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	d.pending = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Pending reports whether a task is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
