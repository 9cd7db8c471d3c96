package editor

import "time"

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// Clock arms single-shot callbacks; the editor never reads time any other way.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// systemClock adapts the time package to Clock.
type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Now returns the current time.
func (systemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f on its own goroutine after d.
func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
