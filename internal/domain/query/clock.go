package query

import "time"

// Clock abstracts timer scheduling so tests can drive debounce and timeout
// deterministically without real time.
type Clock interface {
	// AfterFunc schedules f to run after d and returns a handle that can
	// cancel the firing.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	// Stop cancels the timer. It reports whether the call was prevented.
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall-clock backed Clock used outside tests.
func SystemClock() Clock {
	return systemClock{}
}
