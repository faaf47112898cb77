package tape

import "time"

// Timer is a handle to a scheduled expiry task. Stop cancels the task
// and reports whether it was still pending.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and one-shot scheduling so tests can drive
// tape expiry with a virtual clock instead of sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock returns the real clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
