package playground

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuietInterval is how long the buffers must stay untouched before
// a composition runs
const DefaultQuietInterval = 300 * time.Millisecond

// DebounceStats counts debouncer activity
type DebounceStats struct {
	Notified   uint64 `json:"notified"`
	Fired      uint64 `json:"fired"`
	Superseded uint64 `json:"superseded"`
}

// Debouncer coalesces bursts of snapshots into one callback.
//
// At most one callback is pending. A timer that already expired but lost
// the race against a newer Notify or Stop is recognised by its generation
// and dropped, so only the latest snapshot is ever delivered.
type Debouncer struct {
	clock    clockwork.Clock
	interval time.Duration
	fire     func(Snapshot)

	mu         sync.Mutex
	timer      clockwork.Timer
	generation uint64
	stopped    bool
	stats      DebounceStats
}

// NewDebouncer creates a debouncer; a nil clock means the real clock and a
// non-positive interval means DefaultQuietInterval.
func NewDebouncer(clock clockwork.Clock, interval time.Duration, fire func(Snapshot)) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultQuietInterval
	}
	return &Debouncer{
		clock:    clock,
		interval: interval,
		fire:     fire,
	}
}

// Notify cancels any pending callback and schedules a new one for
// snapshot. It returns true when a pending callback was superseded.
func (d *Debouncer) Notify(snapshot Snapshot) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	superseded := false
	if d.timer != nil {
		d.timer.Stop()
		d.stats.Superseded++
		superseded = true
	}

	d.generation++
	gen := d.generation
	d.stats.Notified++
	d.timer = d.clock.AfterFunc(d.interval, func() {
		d.run(gen, snapshot)
	})

	return superseded
}

func (d *Debouncer) run(gen uint64, snapshot Snapshot) {
	d.mu.Lock()
	if d.stopped || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.stats.Fired++
	d.mu.Unlock()

	d.fire(snapshot)
}

// Pending reports whether a callback is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending callback. No callback starts after Stop
// returns and later Notify calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stats returns a copy of the activity counters
func (d *Debouncer) Stats() DebounceStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Interval returns the quiet interval
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}
