package kiosk

import "time"

// Debouncer enforces a refractory period between accepted requests.
type Debouncer struct {
	period time.Duration
	last   time.Time
}

// NewDebouncer returns a Debouncer with the given refractory period.
func NewDebouncer(period time.Duration) *Debouncer {
	return &Debouncer{period: period}
}

// Accept reports whether a request at now passes, recording it if so.
func (d *Debouncer) Accept(now time.Time) bool {
	if !d.last.IsZero() && now.Sub(d.last) < d.period {
		return false
	}
	d.last = now
	return true
}

// Reset forgets the last accepted request.
func (d *Debouncer) Reset() {
	d.last = time.Time{}
}
