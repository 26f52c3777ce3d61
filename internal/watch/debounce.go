package watch

import "time"

// Debouncer coalesces bursts of filesystem events into a single rebuild:
// C fires once the interval has elapsed after the most recent Trigger.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer

	// C delivers at most one tick per quiet period.
	C <-chan time.Time
}

// NewDebouncer creates a stopped debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	timer := time.NewTimer(interval)
	if !timer.Stop() {
		<-timer.C
	}
	return &Debouncer{interval: interval, timer: timer, C: timer.C}
}

// Trigger (re)arms the debouncer; the pending tick, if any, is pushed back.
func (d *Debouncer) Trigger() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.interval)
}

// Stop cancels any pending tick.
func (d *Debouncer) Stop() {
	d.timer.Stop()
}
