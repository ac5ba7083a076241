package state

import (
	"sync"
	"time"
)

// Debouncer folds bursts of pokes into single events: a Poke starts (or
// restarts) the quiet-period timer, and one event fires once no further
// Poke has arrived for the full window. The watcher uses this so that a
// user dragging twenty folders into a mods root produces one refresh, not
// twenty.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	events chan struct{}
}

// NewDebouncer creates a debouncer with the given quiet window. A
// non-positive window degenerates to firing on the next scheduler tick
// after each poke burst.
func NewDebouncer(window time.Duration) *Debouncer {
	if window < 0 {
		window = 0
	}
	return &Debouncer{
		window: window,
		events: make(chan struct{}, 1),
	}
}

// Poke records activity, deferring the pending event until the quiet
// window elapses without another Poke. Pokes after Stop are dropped.
func (d *Debouncer) Poke() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.fire)
		return
	}
	d.timer.Reset(d.window)
}

// fire delivers the pending event, dropping it if the previous one has
// not been consumed yet (the channel holds at most one).
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	select {
	case d.events <- struct{}{}:
	default:
	}
}

// Events returns the notification channel. It is buffered with capacity
// 1 and never closed, so a consumer that falls behind loses coalesced
// notifications, not correctness.
func (d *Debouncer) Events() <-chan struct{} {
	return d.events
}

// Stop cancels any pending event and drops all future pokes. Idempotent.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
