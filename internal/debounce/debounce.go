// Package debounce delays work until input stops arriving for a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one scheduled task. Scheduling a new task cancels
// the pending one.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	pending func()
	seq     uint64
	running sync.WaitGroup
}

func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Trigger cancels any pending task and schedules fn to run after the quiet
// period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.quiet, func() {
		if task := d.take(seq); task != nil {
			defer d.running.Done()
			task()
		}
	})
}

// Stop cancels the pending task. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	had := d.pending != nil
	d.pending = nil
	return had
}

// Flush runs the pending task now, on the caller's goroutine, and waits for
// a task the timer already started. It reports whether a pending task ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	task := d.pending
	d.pending = nil
	d.mu.Unlock()

	if task != nil {
		task()
	}
	d.running.Wait()
	return task != nil
}

// take claims the pending task if it is still the one scheduled as seq. A
// timer that fired after being replaced finds a newer seq and does nothing.
func (d *Debouncer) take(seq uint64) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq || d.pending == nil {
		return nil
	}
	task := d.pending
	d.pending = nil
	d.timer = nil
	d.running.Add(1)
	return task
}
