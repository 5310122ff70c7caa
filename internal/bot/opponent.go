package bot

import (
	"sync"
	"time"
)

// DefaultDelay is how long the random opponent "thinks" before moving.
const DefaultDelay = 500 * time.Millisecond

// Opponent schedules the automatic opponent move of a session as a one-shot,
// cancelable task. It never decides the move itself; the scheduled function does.
type Opponent struct {
	delay time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

// NewOpponent creates an Opponent that waits delay before running a task.
func NewOpponent(delay time.Duration) *Opponent {
	if delay < 0 {
		delay = 0
	}
	return &Opponent{delay: delay}
}

// Delay returns the configured thinking time.
func (o *Opponent) Delay() time.Duration {
	return o.delay
}

// Schedule arms fn to run after the delay. A task that is already pending is
// replaced.
func (o *Opponent) Schedule(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
	o.generation++
	gen := o.generation

	o.timer = time.AfterFunc(o.delay, func() {
		o.mu.Lock()
		if gen != o.generation || o.timer == nil {
			o.mu.Unlock()
			return
		}
		o.timer = nil
		o.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending task, if any, and reports whether one was dropped.
// A task whose timer already fired but has not started yet will not run.
func (o *Opponent) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.timer == nil {
		return false
	}
	o.stopLocked()
	o.generation++
	return true
}

// Pending reports whether a task is armed and has not started.
func (o *Opponent) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.timer != nil
}

func (o *Opponent) stopLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
